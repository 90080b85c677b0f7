package catlog

import (
	"context"
	"fmt"

	"github.com/Station-Manager/catlog/engine"
)

// Category is a resolved category name. It wraps an engine-owned handle the
// Service never frees: holding one across Reload or Finalize is safe, and
// after Finalize every method is a no-op.
type Category struct {
	name string
	h    Handle
	svc  *Service
	gen  uint64
}

// GetCategory resolves name against the active rules. ok is false when the
// service is not active or no rule covers name.
func (s *Service) GetCategory(name string) (*Category, bool) {
	c, err := s.LookupCategory(name)
	return c, err == nil
}

// LookupCategory is GetCategory with the reason for a failed lookup:
// ErrNotInitialized, ErrFinalized or ErrCategoryNotFound.
func (s *Service) LookupCategory(name string) (*Category, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	if err := s.active(); err != nil {
		return nil, err
	}
	gen := s.engine().Generation()
	if v, ok := s.cats.Load(name); ok {
		if c := v.(*Category); c.gen == gen {
			return c, nil
		}
	}

	h, err := s.engine().Category(name)
	if err != nil {
		return nil, err
	}
	c := &Category{name: name, h: h, svc: s, gen: gen}
	s.cats.Store(name, c)
	return c, nil
}

// Name returns the category name.
func (c *Category) Name() string {
	if c == nil {
		return emptyString
	}
	return c.name
}

// Generation is the configuration generation the category was resolved in.
func (c *Category) Generation() uint64 {
	if c == nil {
		return 0
	}
	return c.gen
}

// Stale reports whether the rules were reloaded or finalized since the
// category was resolved. A stale category still works against the current
// rules until Finalize.
func (c *Category) Stale() bool {
	if c.inert() {
		return true
	}
	return c.svc.Generation() != c.gen
}

func (c *Category) inert() bool {
	return c == nil || c.h == nil || c.svc == nil || c.svc.phase.Load() == phaseFinalized
}

// LevelEnabled reports whether a record at level would be written. It has no
// side effects; call it before building an expensive message.
func (c *Category) LevelEnabled(level int) bool {
	if c.inert() {
		return false
	}
	return c.h.LevelEnabled(level)
}

// LevelSwitch enables every level >= level for this category only, until the
// next reload. The per-rule level selectors are ignored while it holds, so
// every output routed to the category receives the records.
func (c *Category) LevelSwitch(level int) error {
	if c == nil || c.h == nil || c.svc == nil {
		return ErrInvalidHandle
	}
	if c.svc.phase.Load() == phaseFinalized {
		return ErrFinalized
	}
	return c.h.LevelSwitch(level)
}

// Log writes a text record. It never fails; records gated off by level are
// dropped. MDC entries are read from ctx.
func (c *Category) Log(ctx context.Context, level int, file string, line int, fn, msg string) {
	if c.inert() {
		return
	}
	c.h.Log(orBackground(ctx), &engine.Record{Level: level, File: file, Line: line, Func: fn, Msg: msg})
}

// LogBinary writes data as a hex dump. data is not retained.
func (c *Category) LogBinary(ctx context.Context, level int, file string, line int, fn string, data []byte) {
	if c.inert() {
		return
	}
	c.h.Log(orBackground(ctx), &engine.Record{Level: level, File: file, Line: line, Func: fn, Data: data, Binary: true})
}

// Logf formats and writes a record with the caller's file, line and function.
// Nothing is formatted when level is gated off.
func (c *Category) Logf(ctx context.Context, level int, format string, args ...any) {
	c.logf(ctx, 1, level, format, args)
}

// Debugf is Logf at LevelDebug.
func (c *Category) Debugf(ctx context.Context, format string, args ...any) {
	c.logf(ctx, 1, LevelDebug, format, args)
}

// Infof is Logf at LevelInfo.
func (c *Category) Infof(ctx context.Context, format string, args ...any) {
	c.logf(ctx, 1, LevelInfo, format, args)
}

// Noticef is Logf at LevelNotice.
func (c *Category) Noticef(ctx context.Context, format string, args ...any) {
	c.logf(ctx, 1, LevelNotice, format, args)
}

// Warnf is Logf at LevelWarn.
func (c *Category) Warnf(ctx context.Context, format string, args ...any) {
	c.logf(ctx, 1, LevelWarn, format, args)
}

// Errorf is Logf at LevelError.
func (c *Category) Errorf(ctx context.Context, format string, args ...any) {
	c.logf(ctx, 1, LevelError, format, args)
}

// Fatalf logs at LevelFatal. It does not exit.
func (c *Category) Fatalf(ctx context.Context, format string, args ...any) {
	c.logf(ctx, 1, LevelFatal, format, args)
}

func (c *Category) logf(ctx context.Context, skip, level int, format string, args []any) {
	if !c.LevelEnabled(level) {
		return
	}
	file, line, fn := callSite(skip + 1)
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	c.h.Log(orBackground(ctx), &engine.Record{Level: level, File: file, Line: line, Func: fn, Msg: msg})
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
