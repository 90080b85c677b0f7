package catlog

import (
	"context"

	"github.com/Station-Manager/catlog/mdc"
)

// WithMDC returns a child of ctx with an empty MDC. Contexts derived from the
// result share it; sibling calls to WithMDC do not.
func WithMDC(ctx context.Context) context.Context {
	return mdc.NewContext(ctx)
}

func (s *Service) mdcFor(ctx context.Context) (*mdc.Map, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	if err := s.active(); err != nil {
		return nil, err
	}
	m := mdc.FromContext(ctx)
	if m == nil {
		return nil, ErrNoMDC
	}
	return m, nil
}

// MDCPut sets key to value in the MDC carried by ctx. Every record logged
// with ctx, or a context derived from it, can render the entry with %M(key).
func (s *Service) MDCPut(ctx context.Context, key, value string) error {
	m, err := s.mdcFor(ctx)
	if err != nil {
		return err
	}
	switch {
	case key == emptyString:
		return ErrMDCKeyEmpty
	case len(key) > s.mdcKeyMax:
		return ErrMDCKeyTooLong
	case len(value) > s.mdcValueMax:
		return ErrMDCValueTooLong
	}
	return m.Put(key, value)
}

// MDCGet returns the value of key, if set.
func (s *Service) MDCGet(ctx context.Context, key string) (string, bool) {
	m, err := s.mdcFor(ctx)
	if err != nil {
		return emptyString, false
	}
	return m.Get(key)
}

// MDCRemove deletes key. Missing keys are ignored.
func (s *Service) MDCRemove(ctx context.Context, key string) {
	if m, err := s.mdcFor(ctx); err == nil {
		m.Remove(key)
	}
}

// MDCClean deletes every entry of the MDC carried by ctx.
func (s *Service) MDCClean(ctx context.Context) {
	if m, err := s.mdcFor(ctx); err == nil {
		m.Clean()
	}
}
