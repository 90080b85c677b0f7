package engine

import (
	"context"
	"time"

	"go.uber.org/atomic"
)

// Category is an engine-owned handle. It survives reloads and re-binds to
// the current rule set on first use after one.
type Category struct {
	name string
	e    *Engine
	bind atomic.Pointer[binding]
}

// binding is a category fitted to one rule set.
type binding struct {
	rs       *ruleSet
	rules    []*rule
	levels   levelSet
	switched bool
}

func newBinding(rs *ruleSet, name string) *binding {
	b := &binding{rs: rs, rules: rs.fit(name)}
	for _, r := range b.rules {
		b.levels.union(r.levels)
	}
	return b
}

// current returns the binding for the active rule set, or nil once the
// engine is finalized.
func (c *Category) current() *binding {
	for {
		rs := c.e.rules.Load()
		if rs == nil {
			return nil
		}
		b := c.bind.Load()
		if b != nil && b.rs == rs {
			return b
		}
		nb := newBinding(rs, c.name)
		if c.bind.CompareAndSwap(b, nb) {
			return nb
		}
	}
}

// Name returns the category name.
func (c *Category) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// LevelEnabled reports whether a record at level would reach any output.
func (c *Category) LevelEnabled(level int) bool {
	if c == nil {
		return false
	}
	b := c.current()
	return b != nil && b.levels.has(level)
}

// LevelSwitch enables every level >= level for this category, bypassing the
// rule selectors, until the next reload. Every output routed to the category
// receives the records, including rules whose selector is "!".
func (c *Category) LevelSwitch(level int) error {
	if c == nil || c.e == nil {
		return ErrInvalidHandle
	}
	if !ValidLevel(level) {
		return ErrInvalidLevel
	}
	for {
		b := c.current()
		if b == nil {
			return c.e.lifecycleErr()
		}
		nb := *b
		nb.levels = levelsAtLeast(level)
		nb.switched = true
		if c.bind.CompareAndSwap(b, &nb) {
			return nil
		}
	}
}

// Log writes rec to the category's outputs. It never fails; suppressed
// records and write errors are only counted.
func (c *Category) Log(ctx context.Context, rec *Record) {
	if c == nil || c.e == nil || rec == nil {
		return
	}
	if !c.LevelEnabled(rec.Level) {
		recordsSuppressed.Inc()
		return
	}
	c.e.tick()

	c.e.mu.RLock()
	defer c.e.mu.RUnlock()
	b := c.current()
	if b == nil || !b.levels.has(rec.Level) {
		recordsSuppressed.Inc()
		return
	}

	r := *rec
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	c.e.emit(ctx, c.name, b, &r)
}
