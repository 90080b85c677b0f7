package catlog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMDC_PutGetRemoveClean(t *testing.T) {
	svc, _ := newActiveService(t, "*.* >stdout")
	ctx := WithMDC(context.Background())

	require.NoError(t, svc.MDCPut(ctx, "k", "v"))
	v, ok := svc.MDCGet(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	svc.MDCRemove(ctx, "k")
	_, ok = svc.MDCGet(ctx, "k")
	assert.False(t, ok)
	svc.MDCRemove(ctx, "never-set")

	require.NoError(t, svc.MDCPut(ctx, "a", "1"))
	require.NoError(t, svc.MDCPut(ctx, "b", "2"))
	require.NoError(t, svc.MDCPut(ctx, "a", "3"))
	v, _ = svc.MDCGet(ctx, "a")
	assert.Equal(t, "3", v)

	svc.MDCClean(ctx)
	for _, k := range []string{"a", "b"} {
		_, ok = svc.MDCGet(ctx, k)
		assert.False(t, ok, k)
	}
}

func TestMDC_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MDCMaxKeyLen = 4
	cfg.MDCMaxValueLen = 8
	svc, err := NewService(cfg)
	require.NoError(t, err)
	t.Cleanup(svc.Finalize)
	ctx := WithMDC(context.Background())

	assert.ErrorIs(t, svc.MDCPut(ctx, "k", "v"), ErrNotInitialized)
	_, ok := svc.MDCGet(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, svc.InitFromString("*.* >stdout"))
	assert.ErrorIs(t, svc.MDCPut(context.Background(), "k", "v"), ErrNoMDC)
	assert.ErrorIs(t, svc.MDCPut(ctx, "", "v"), ErrMDCKeyEmpty)
	assert.ErrorIs(t, svc.MDCPut(ctx, "toolong", "v"), ErrMDCKeyTooLong)
	assert.ErrorIs(t, svc.MDCPut(ctx, "k", "much too long"), ErrMDCValueTooLong)
	require.NoError(t, svc.MDCPut(ctx, "four", "eightchr"))

	_, ok = svc.MDCGet(context.Background(), "four")
	assert.False(t, ok)
	assert.NotPanics(t, func() {
		svc.MDCRemove(context.Background(), "four")
		svc.MDCClean(context.TODO())
	})
}

func TestMDC_RenderedAtEmission(t *testing.T) {
	svc, out := newActiveService(t, "[formats]\ns = \"[%M(user)] %m%n\"\n[rules]\napp.* >stdout; s\n")
	c, ok := svc.GetCategory("app")
	require.True(t, ok)

	ctx := WithMDC(context.Background())
	c.Log(ctx, LevelInfo, "f.go", 1, "fn", "before")
	require.NoError(t, svc.MDCPut(ctx, "user", "alice"))

	// Contexts derived from an MDC context share it.
	child, cancel := context.WithCancel(ctx)
	defer cancel()
	c.Log(child, LevelInfo, "f.go", 1, "fn", "after")

	assert.Equal(t, "[] before\n[alice] after\n", out.String())
}

func TestMDC_ContextsAreIsolated(t *testing.T) {
	svc, out := newActiveService(t, "[formats]\ns = \"%M(id) %m%n\"\n[rules]\napp.* >stdout; s\n")
	c, ok := svc.GetCategory("app")
	require.True(t, ok)

	const workers, perWorker = 16, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ctx := WithMDC(context.Background())
			id := fmt.Sprintf("w%02d", w)
			if !assert.NoError(t, svc.MDCPut(ctx, "id", id)) {
				return
			}
			for i := 0; i < perWorker; i++ {
				c.Log(ctx, LevelInfo, "f.go", 1, "fn", id)
			}
			svc.MDCClean(ctx)
		}(w)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, workers*perWorker)
	for _, l := range lines {
		parts := strings.Fields(l)
		require.Len(t, parts, 2, l)
		assert.Equal(t, parts[0], parts[1])
	}
}
