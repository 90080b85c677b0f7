package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// threadSafeBuffer is a simple thread-safe buffer for capturing output.
type threadSafeBuffer struct {
	bytes.Buffer
	sync.Mutex
}

func (b *threadSafeBuffer) Write(p []byte) (n int, err error) {
	b.Lock()
	defer b.Unlock()
	return b.Buffer.Write(p)
}

func (b *threadSafeBuffer) String() string {
	b.Lock()
	defer b.Unlock()
	return b.Buffer.String()
}

func newTestEngine(t testing.TB) (*Engine, *threadSafeBuffer) {
	t.Helper()
	out := &threadSafeBuffer{}
	e := New(Options{Stdout: out, Stderr: out})
	t.Cleanup(e.Fini)
	return e, out
}

func writeConf(t testing.TB, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func infoRecord(msg string) *Record {
	return &Record{Level: LevelInfo, File: "f.go", Line: 10, Func: "fn", Msg: msg}
}

// capture collects records delivered to a `$name` output.
type capture struct {
	mu   sync.Mutex
	msgs []Msg
}

func (c *capture) record(m *Msg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *m
	cp.Buf = append([]byte(nil), m.Buf...)
	c.msgs = append(c.msgs, cp)
	return nil
}

func (c *capture) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.msgs))
	for _, m := range c.msgs {
		out = append(out, string(m.Buf))
	}
	return out
}
