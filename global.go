package catlog

import (
	"context"

	"github.com/Station-Manager/catlog/engine"
	"go.uber.org/atomic"
)

var std atomic.Pointer[Service]

// Default returns the process-wide Service, building it from DefaultConfig
// and the CATLOG_PROFILE_* environment on first use.
func Default() *Service {
	if s := std.Load(); s != nil {
		return s
	}
	s, err := NewService(DefaultConfig().ApplyEnv())
	if err != nil {
		s, _ = NewService(DefaultConfig())
	}
	if std.CompareAndSwap(nil, s) {
		return s
	}
	return std.Load()
}

// SetDefault replaces the process-wide Service. The previous one is not
// finalized. A nil s makes the next Default call build a new one.
func SetDefault(s *Service) {
	std.Store(s)
}

func Init(path string) error { return Default().Init(path) }
func InitFromString(text string) error { return Default().InitFromString(text) }
func Reload(path string) error { return Default().Reload(path) }
func Finalize() { Default().Finalize() }
func Version() string { return Default().Version() }
func GetCategory(name string) (*Category, bool) { return Default().GetCategory(name) }
func LookupCategory(name string) (*Category, error) {
	return Default().LookupCategory(name)
}
func SetRecord(name string, fn engine.RecordFunc) error { return Default().SetRecord(name, fn) }
func Profile() { Default().Profile() }

func InitDefault(path, name string) error { return Default().InitDefault(path, name) }
func SetDefaultCategory(name string) error { return Default().SetDefaultCategory(name) }
func DefaultLevelEnabled(level int) bool { return Default().DefaultLevelEnabled(level) }

func LogDefault(ctx context.Context, level int, file string, line int, fn, msg string) {
	Default().LogDefault(ctx, level, file, line, fn, msg)
}

func LogDefaultBinary(ctx context.Context, level int, file string, line int, fn string, data []byte) {
	Default().LogDefaultBinary(ctx, level, file, line, fn, data)
}

// Logf writes to the default category with the caller's location.
func Logf(ctx context.Context, level int, format string, args ...any) {
	c, _ := Default().DefaultCategory()
	c.logf(ctx, 1, level, format, args)
}

func MDCPut(ctx context.Context, key, value string) error { return Default().MDCPut(ctx, key, value) }
func MDCGet(ctx context.Context, key string) (string, bool) { return Default().MDCGet(ctx, key) }
func MDCRemove(ctx context.Context, key string) { Default().MDCRemove(ctx, key) }
func MDCClean(ctx context.Context) { Default().MDCClean(ctx) }
