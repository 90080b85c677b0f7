package catlog

import (
	"context"
)

// InitDefault initializes from path and selects name as the default
// category. If name does not resolve the service is returned to the
// uninitialized phase with a fresh engine, so the call may be retried.
// Record functions registered with SetRecord survive the rollback.
func (s *Service) InitDefault(path, name string) error {
	if s == nil {
		return ErrNotInitialized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.uninitialized(); err != nil {
		return err
	}

	eng := s.engine()
	if err := eng.Init(path); err != nil {
		return err
	}
	h, err := eng.Category(name)
	if err != nil {
		eng.Fini()
		if next := s.factory(s.opts); next != nil {
			s.replaceEngine(next)
		} else {
			s.phase.Store(phaseFinalized)
		}
		s.diag.Warn().Str("category", name).Err(err).Msg(errMsgDefaultCat)
		return err
	}

	s.phase.Store(phaseActive)
	c := &Category{name: name, h: h, svc: s, gen: eng.Generation()}
	s.cats.Store(name, c)
	s.def.Store(c)
	return nil
}

// SetDefaultCategory makes name the default category without touching the
// rules. On failure the previous default is kept.
func (s *Service) SetDefaultCategory(name string) error {
	c, err := s.LookupCategory(name)
	if err != nil {
		return err
	}
	s.def.Store(c)
	return nil
}

// DefaultCategory returns the current default category.
func (s *Service) DefaultCategory() (*Category, bool) {
	if s == nil {
		return nil, false
	}
	c := s.def.Load()
	return c, c != nil
}

// DefaultLevelEnabled is LevelEnabled for the default category. It is false
// when no default category is set.
func (s *Service) DefaultLevelEnabled(level int) bool {
	c, _ := s.DefaultCategory()
	return c.LevelEnabled(level)
}

// LogDefault is Category.Log against the default category.
func (s *Service) LogDefault(ctx context.Context, level int, file string, line int, fn, msg string) {
	c, _ := s.DefaultCategory()
	c.Log(ctx, level, file, line, fn, msg)
}

// LogDefaultBinary is Category.LogBinary against the default category.
func (s *Service) LogDefaultBinary(ctx context.Context, level int, file string, line int, fn string, data []byte) {
	c, _ := s.DefaultCategory()
	c.LogBinary(ctx, level, file, line, fn, data)
}

// LogDefaultf is Category.Logf against the default category.
func (s *Service) LogDefaultf(ctx context.Context, level int, format string, args ...any) {
	c, _ := s.DefaultCategory()
	c.logf(ctx, 1, level, format, args)
}
