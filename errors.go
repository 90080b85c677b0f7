package catlog

import (
	"errors"

	"github.com/Station-Manager/catlog/engine"
)

// Lifecycle and lookup failures. They are the engine's own sentinels so
// errors.Is works across both packages.
var (
	ErrNotInitialized     = engine.ErrNotInitialized
	ErrAlreadyInitialized = engine.ErrAlreadyInitialized
	ErrFinalized          = engine.ErrFinalized
	ErrCategoryNotFound   = engine.ErrCategoryNotFound
	ErrInvalidLevel       = engine.ErrInvalidLevel
	ErrInvalidHandle      = engine.ErrInvalidHandle
)

var (
	ErrNoMDC           = errors.New("catlog: context carries no MDC, use WithMDC")
	ErrMDCKeyEmpty     = errors.New("catlog: MDC key is empty")
	ErrMDCKeyTooLong   = errors.New("catlog: MDC key too long")
	ErrMDCValueTooLong = errors.New("catlog: MDC value too long")
)
