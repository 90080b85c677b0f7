package catlog

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogHandler(t *testing.T) {
	svc, out := newActiveService(t, "[formats]\ns = \"%f:%L %V [%M(req)] %m%n\"\n[rules]\napi.INFO >stdout; s\n")
	c, ok := svc.GetCategory("api")
	require.True(t, ok)

	ctx := WithMDC(context.Background())
	require.NoError(t, svc.MDCPut(ctx, "req", "r1"))

	logger := slog.New(NewSlogHandler(c)).With("svc", "users").WithGroup("http")
	assert.False(t, logger.Enabled(ctx, slog.LevelDebug))
	assert.True(t, logger.Enabled(ctx, slog.LevelInfo))

	logger.DebugContext(ctx, "dropped")
	_, _, line, _ := runtime.Caller(0)
	logger.WarnContext(ctx, "slow", "ms", 250, slog.Group("peer", "ip", "10.0.0.1"))

	want := "slog_test.go:" + strconv.Itoa(line+1) + " WARN [r1] slow svc=users http.ms=250 http.peer.ip=10.0.0.1\n"
	assert.Equal(t, want, out.String())
}

func TestFromSlogLevel(t *testing.T) {
	cases := []struct {
		in   slog.Level
		want int
	}{
		{in: slog.LevelDebug - 4, want: LevelDebug},
		{in: slog.LevelDebug, want: LevelDebug},
		{in: slog.LevelInfo, want: LevelInfo},
		{in: slog.LevelWarn, want: LevelWarn},
		{in: slog.LevelError, want: LevelError},
		{in: slog.LevelError + 4, want: LevelFatal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, fromSlogLevel(tc.in), tc.in.String())
	}
}

func TestSlogHandler_AfterFinalize(t *testing.T) {
	svc, out := newActiveService(t, "api.* >stdout")
	c, ok := svc.GetCategory("api")
	require.True(t, ok)
	logger := slog.New(NewSlogHandler(c))

	svc.Finalize()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Error("gone")
	assert.Empty(t, out.String())
}
