package catlog

import (
	"context"
	"testing"

	"github.com/Station-Manager/catlog/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobal_DelegatesToDefaultService(t *testing.T) {
	svc, out := newTestService(t)
	SetDefault(svc)
	t.Cleanup(func() { SetDefault(nil) })
	assert.Same(t, svc, Default())

	_, ok := GetCategory("net")
	assert.False(t, ok)

	var records []string
	require.NoError(t, SetRecord("sink", func(m *engine.Msg) error {
		records = append(records, string(m.Buf))
		return nil
	}))
	require.NoError(t, InitFromString("[formats]\ns = \"%c %m%n\"\n[rules]\nnet.* >stdout; s\naudit.* $sink; s\n"))
	assert.Equal(t, engine.Version, Version())

	c, err := LookupCategory("net")
	require.NoError(t, err)
	ctx := WithMDC(context.Background())
	require.NoError(t, MDCPut(ctx, "k", "v"))
	v, ok := MDCGet(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	MDCRemove(ctx, "k")
	MDCClean(ctx)

	require.NoError(t, SetDefaultCategory("audit"))
	assert.True(t, DefaultLevelEnabled(LevelInfo))
	LogDefault(ctx, LevelInfo, "f.go", 1, "fn", "one")
	Logf(ctx, LevelInfo, "two %d", 2)
	LogDefaultBinary(ctx, LevelInfo, "f.go", 1, "fn", []byte{0})
	c.Infof(ctx, "three")
	assert.Len(t, records, 3)
	assert.Equal(t, "audit one\n", records[0])
	assert.Equal(t, "audit two 2\n", records[1])
	assert.Equal(t, "net three\n", out.String())

	require.NoError(t, Reload(""))
	Profile()
	Finalize()
	assert.ErrorIs(t, Init("x"), ErrFinalized)
	assert.ErrorIs(t, InitDefault("x", "net"), ErrFinalized)
}

func TestGlobal_DefaultIsBuiltLazily(t *testing.T) {
	SetDefault(nil)
	t.Cleanup(func() { SetDefault(nil) })

	a := Default()
	require.NotNil(t, a)
	assert.Same(t, a, Default())
	assert.False(t, a.Active())
}
