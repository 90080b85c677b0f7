package engine

import "errors"

var (
	ErrNotInitialized     = errors.New("engine: not initialized")
	ErrAlreadyInitialized = errors.New("engine: already initialized")
	ErrFinalized          = errors.New("engine: finalized")
	ErrCategoryNotFound   = errors.New("engine: no rule matches category")
	ErrInvalidLevel       = errors.New("engine: level out of range")
	ErrInvalidHandle      = errors.New("engine: invalid category handle")
	ErrInvalidRecord      = errors.New("engine: record function needs a name and a func")
)

const (
	errMsgReadConf   = "Cannot read rule file."
	errMsgSettings   = "Global settings are invalid."
	errMsgNoRecord   = "Record function is not set."
	errMsgOpenOutput = "Cannot open file output."
)
