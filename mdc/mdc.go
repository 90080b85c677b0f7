package mdc

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrKeyEmpty is returned by Put for an empty key.
var ErrKeyEmpty = errors.New("mdc: key is empty")

type ctxKey struct{}

// Entry is a single key/value pair.
type Entry struct {
	Key   string
	Value string
}

// Map is the key/value store of one execution context. It is safe for
// concurrent use; concurrent writers to the same key race on ordering only.
type Map struct {
	mu sync.RWMutex
	kv map[string]string
}

// New returns an empty Map.
func New() *Map {
	return &Map{kv: make(map[string]string)}
}

// NewContext returns a child of ctx carrying a fresh, empty Map.
func NewContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, New())
}

// FromContext returns the Map bound to ctx, or nil when none is bound.
func FromContext(ctx context.Context) *Map {
	if ctx == nil {
		return nil
	}
	m, _ := ctx.Value(ctxKey{}).(*Map)
	return m
}

// Put inserts or overwrites key.
func (m *Map) Put(key, value string) error {
	if key == "" {
		return ErrKeyEmpty
	}
	m.mu.Lock()
	m.kv[key] = value
	m.mu.Unlock()
	return nil
}

// Get returns the value for key and whether it is present.
func (m *Map) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	m.mu.RLock()
	v, ok := m.kv[key]
	m.mu.RUnlock()
	return v, ok
}

// Remove deletes key. Removing an absent key is a no-op.
func (m *Map) Remove(key string) {
	m.mu.Lock()
	delete(m.kv, key)
	m.mu.Unlock()
}

// Clean deletes every entry.
func (m *Map) Clean() {
	m.mu.Lock()
	clear(m.kv)
	m.mu.Unlock()
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.kv)
}

// Entries returns a snapshot of all entries sorted by key.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	out := make([]Entry, 0, len(m.kv))
	for k, v := range m.kv {
		out = append(out, Entry{Key: k, Value: v})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
