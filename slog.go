package catlog

import (
	"context"
	"log/slog"
	"runtime"
	"strings"

	"github.com/Station-Manager/catlog/engine"
)

// slogHandler is a slog.Handler that routes records into a category. Attributes
// are appended to the message as key=value pairs; the rule's format decides
// the rest of the line.
type slogHandler struct {
	cat    *Category
	attrs  []slog.Attr
	groups []string
}

// NewSlogHandler returns a slog.Handler writing to c.
//
//	logger := slog.New(catlog.NewSlogHandler(cat))
//	logger.InfoContext(ctx, "synced", "rows", n)
func NewSlogHandler(c *Category) slog.Handler {
	return &slogHandler{cat: c}
}

// Enabled gates by the category's level.
func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.cat.LevelEnabled(fromSlogLevel(level))
}

func (h *slogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cat.inert() {
		return nil
	}

	var b strings.Builder
	b.WriteString(r.Message)
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		appendAttr(&b, emptyString, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, prefix, a)
		return true
	})

	rec := &engine.Record{Level: fromSlogLevel(r.Level), Msg: b.String(), Time: r.Time}
	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		rec.File, rec.Line, rec.Func = frame.File, frame.Line, shortFuncName(frame.Function)
	}
	h.cat.h.Log(orBackground(ctx), rec)
	return nil
}

// WithAttrs returns a copy of the handler with additional base attributes.
func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	prefix := strings.Join(h.groups, ".")
	nh.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		if prefix != emptyString {
			a.Key = prefix + "." + a.Key
		}
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

// WithGroup qualifies the keys of later attributes with name.
func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == emptyString {
		return h
	}
	nh := *h
	nh.groups = append(append([]string{}, h.groups...), name)
	return &nh
}

func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != emptyString {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			appendAttr(b, key, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}

// fromSlogLevel maps slog levels onto the built-in levels. Levels above
// slog.LevelError by 4 or more map to LevelFatal.
func fromSlogLevel(level slog.Level) int {
	switch {
	case level < slog.LevelInfo:
		return LevelDebug
	case level < slog.LevelWarn:
		return LevelInfo
	case level < slog.LevelError:
		return LevelWarn
	case level < slog.LevelError+4:
		return LevelError
	default:
		return LevelFatal
	}
}
