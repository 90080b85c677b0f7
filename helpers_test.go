package catlog

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

// newTestService returns an uninitialized service whose stdout and stderr
// outputs are captured.
func newTestService(t testing.TB) (*Service, *threadSafeBuffer) {
	t.Helper()
	out := &threadSafeBuffer{}
	cfg := DefaultConfig()
	cfg.Stdout = out
	cfg.Stderr = out
	svc, err := NewService(cfg)
	require.NoError(t, err)
	t.Cleanup(svc.Finalize)
	return svc, out
}

// newActiveService is newTestService initialized from rules.
func newActiveService(t testing.TB, rules string) (*Service, *threadSafeBuffer) {
	t.Helper()
	svc, out := newTestService(t)
	require.NoError(t, svc.InitFromString(rules))
	return svc, out
}

func writeRules(t testing.TB, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}
