package catlog

import (
	"context"

	"github.com/Station-Manager/catlog/engine"
)

// Engine is the backend a Service drives. It owns rule parsing, category
// matching and output I/O; the Service only sequences lifecycle calls and
// hands records over.
type Engine interface {
	Init(path string) error
	InitFromString(text string) error
	// Reload swaps the rule set atomically. A failed reload changes nothing.
	Reload(path string) error
	Fini()
	Version() string
	Generation() uint64
	Active() bool
	Category(name string) (Handle, error)
	SetRecord(name string, fn engine.RecordFunc) error
	Profile()
}

// Handle is an engine-owned category. The Service never releases it; it must
// stay safe to call after a reload or Fini.
type Handle interface {
	Name() string
	LevelEnabled(level int) bool
	LevelSwitch(level int) error
	Log(ctx context.Context, rec *engine.Record)
}

// EngineFactory builds a fresh, uninitialized engine.
type EngineFactory func(opts engine.Options) Engine

// NewEngine is the EngineFactory for the built-in engine.
func NewEngine(opts engine.Options) Engine {
	return engineAdapter{engine.New(opts)}
}

// engineAdapter narrows *engine.Engine's concrete Category to Handle.
type engineAdapter struct {
	*engine.Engine
}

func (a engineAdapter) Category(name string) (Handle, error) {
	c, err := a.Engine.Category(name)
	if err != nil {
		return nil, err
	}
	return c, nil
}
