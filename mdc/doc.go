// Package mdc implements the Mapped Diagnostic Context: a small key/value
// store bound to a context.Context.
//
// Each call to NewContext opens a new execution context with its own empty
// Map. Contexts derived from it (context.WithCancel, WithValue, ...) share
// that Map, so a request handler and the helpers it calls see the same
// entries while two independent requests never see each other's.
//
//	ctx = mdc.NewContext(ctx)
//	m := mdc.FromContext(ctx)
//	_ = m.Put("request_id", rid)
//	defer m.Clean()
package mdc
