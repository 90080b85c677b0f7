package catlog

import (
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// parseLevel parses a string log level into a zerolog.Level.
// Returns zerolog.NoLevel and an error if parsing fails.
func parseLevel(level string) (zerolog.Level, error) {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, err
	}
	return l, nil
}

// callSite reports the file, line and short function name skip frames above
// its caller.
func callSite(skip int) (file string, line int, fn string) {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "???", 0, emptyString
	}
	if f := runtime.FuncForPC(pc); f != nil {
		fn = shortFuncName(f.Name())
	}
	return file, line, fn
}

// shortFuncName trims the import path from a fully qualified function name:
// "github.com/a/b.(*T).Run" becomes "(*T).Run".
func shortFuncName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
