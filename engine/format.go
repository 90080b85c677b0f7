package engine

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Station-Manager/catlog/mdc"
	"github.com/lestrrat-go/strftime"
	"github.com/rs/zerolog"
)

const (
	// DefaultFormat is used by rules that name no format.
	DefaultFormat = "%d %V [%p:%F:%L] %m%n"
	// JSONFormat is the reserved name of the built-in JSON format.
	JSONFormat = "json"

	defaultTimePattern = "%F %T"
)

type specKind int

const (
	specLiteral specKind = iota
	specCategory
	specTime
	specMillis
	specMicros
	specEnv
	specFile
	specFileBase
	specHost
	specLine
	specMessage
	specMDC
	specPID
	specFunc
	specLevelUpper
	specLevelLower
)

type spec struct {
	kind  specKind
	arg   string // literal text, env var or MDC key
	time  *strftime.Strftime
	left  bool
	width int
	prec  int
}

type format struct {
	name    string
	pattern string
	json    bool
	specs   []spec
}

// renderCtx carries what a format needs to render one record.
type renderCtx struct {
	category string
	rec      *Record
	mdc      *mdc.Map
	levels   *levelTable
	host     string
	pid      string
}

func jsonFormat() *format {
	return &format{name: JSONFormat, pattern: "@json", json: true}
}

// compileFormat parses a %-pattern.
func compileFormat(name, pattern string) (*format, error) {
	f := &format{name: name, pattern: pattern}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			f.specs = append(f.specs, spec{kind: specLiteral, arg: lit.String(), prec: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' {
			lit.WriteByte(pattern[i])
			continue
		}
		i++
		if i >= len(pattern) {
			return nil, fmt.Errorf("format %q: dangling %%", name)
		}
		if pattern[i] == '%' {
			lit.WriteByte('%')
			continue
		}

		s := spec{prec: -1}
		if pattern[i] == '-' {
			s.left = true
			i++
		}
		start := i
		for i < len(pattern) && pattern[i] >= '0' && pattern[i] <= '9' {
			i++
		}
		if i > start {
			s.width, _ = strconv.Atoi(pattern[start:i])
		}
		if i < len(pattern) && pattern[i] == '.' {
			i++
			start = i
			for i < len(pattern) && pattern[i] >= '0' && pattern[i] <= '9' {
				i++
			}
			s.prec, _ = strconv.Atoi(pattern[start:i])
		}
		if i >= len(pattern) {
			return nil, fmt.Errorf("format %q: incomplete conversion", name)
		}

		var arg string
		var hasArg bool
		verb := pattern[i]
		switch {
		case strings.HasPrefix(pattern[i:], "ms"):
			s.kind = specMillis
			i++
		case strings.HasPrefix(pattern[i:], "us"):
			s.kind = specMicros
			i++
		default:
			switch verb {
			case 'c':
				s.kind = specCategory
			case 'd':
				s.kind = specTime
			case 'E':
				s.kind = specEnv
			case 'F':
				s.kind = specFile
			case 'f':
				s.kind = specFileBase
			case 'H':
				s.kind = specHost
			case 'L':
				s.kind = specLine
			case 'm':
				s.kind = specMessage
			case 'M':
				s.kind = specMDC
			case 'n':
				s = spec{kind: specLiteral, arg: "\n", prec: -1}
			case 'p':
				s.kind = specPID
			case 'U':
				s.kind = specFunc
			case 'V':
				s.kind = specLevelUpper
			case 'v':
				s.kind = specLevelLower
			default:
				return nil, fmt.Errorf("format %q: unknown conversion %%%c", name, verb)
			}
		}

		if s.kind == specTime || s.kind == specEnv || s.kind == specMDC {
			if i+1 < len(pattern) && pattern[i+1] == '(' {
				end := strings.IndexByte(pattern[i+1:], ')')
				if end < 0 {
					return nil, fmt.Errorf("format %q: unterminated argument to %%%c", name, verb)
				}
				arg = pattern[i+2 : i+1+end]
				hasArg = true
				i += end + 1
			}
		}

		switch s.kind {
		case specTime:
			if !hasArg || arg == "" {
				arg = defaultTimePattern
			}
			tf, err := strftime.New(arg)
			if err != nil {
				return nil, fmt.Errorf("format %q: time pattern %q: %v", name, arg, err)
			}
			s.time = tf
		case specEnv, specMDC:
			if !hasArg || arg == "" {
				return nil, fmt.Errorf("format %q: %%%c needs a (name) argument", name, verb)
			}
			s.arg = arg
		}

		flush()
		f.specs = append(f.specs, s)
	}
	flush()
	return f, nil
}

func (f *format) render(buf *bytes.Buffer, rc *renderCtx) {
	if f.json {
		f.renderJSON(buf, rc)
		return
	}
	var scratch []byte
	for i := range f.specs {
		s := &f.specs[i]
		if s.kind == specLiteral {
			buf.WriteString(s.arg)
			continue
		}
		scratch = s.appendValue(scratch[:0], rc)
		writePadded(buf, scratch, s)
	}
}

func (s *spec) appendValue(b []byte, rc *renderCtx) []byte {
	rec := rc.rec
	switch s.kind {
	case specCategory:
		return append(b, rc.category...)
	case specTime:
		return s.time.FormatBuffer(b, rec.Time)
	case specMillis:
		return appendZeroPadded(b, rec.Time.Nanosecond()/1e6, 3)
	case specMicros:
		return appendZeroPadded(b, rec.Time.Nanosecond()/1e3, 6)
	case specEnv:
		return append(b, os.Getenv(s.arg)...)
	case specFile:
		return append(b, rec.File...)
	case specFileBase:
		return append(b, filepath.Base(rec.File)...)
	case specHost:
		return append(b, rc.host...)
	case specLine:
		return strconv.AppendInt(b, int64(rec.Line), 10)
	case specMessage:
		if rec.Binary {
			return appendHexDump(b, rec.Data)
		}
		return append(b, rec.Msg...)
	case specMDC:
		v, _ := rc.mdc.Get(s.arg)
		return append(b, v...)
	case specPID:
		return append(b, rc.pid...)
	case specFunc:
		return append(b, rec.Func...)
	case specLevelUpper:
		return append(b, rc.levels.name(rec.Level)...)
	case specLevelLower:
		return append(b, strings.ToLower(rc.levels.name(rec.Level))...)
	}
	return b
}

func (f *format) renderJSON(buf *bytes.Buffer, rc *renderCtx) {
	rec := rc.rec
	logger := zerolog.New(buf)
	ev := logger.Log().
		Time(zerolog.TimestampFieldName, rec.Time).
		Str(zerolog.LevelFieldName, strings.ToLower(rc.levels.name(rec.Level))).
		Str("category", rc.category).
		Str("file", rec.File).
		Int("line", rec.Line).
		Str("func", rec.Func)
	if entries := rc.mdc.Entries(); len(entries) > 0 {
		d := zerolog.Dict()
		for _, e := range entries {
			d.Str(e.Key, e.Value)
		}
		ev.Dict("mdc", d)
	}
	if rec.Binary {
		ev.Hex("data", rec.Data).Send()
		return
	}
	ev.Msg(rec.Msg)
}

// appendHexDump renders data the way hzlog does: a newline followed by a
// canonical hex dump without the trailing newline.
func appendHexDump(b []byte, data []byte) []byte {
	b = append(b, '\n')
	if len(data) == 0 {
		return b
	}
	return append(b, strings.TrimSuffix(hex.Dump(data), "\n")...)
}

func appendZeroPadded(b []byte, v, width int) []byte {
	s := strconv.Itoa(v)
	for i := len(s); i < width; i++ {
		b = append(b, '0')
	}
	return append(b, s...)
}

func writePadded(buf *bytes.Buffer, val []byte, s *spec) {
	if s.prec >= 0 && utf8.RuneCount(val) > s.prec {
		n, i := 0, 0
		for i < len(val) && n < s.prec {
			_, size := utf8.DecodeRune(val[i:])
			i += size
			n++
		}
		val = val[:i]
	}
	pad := s.width - utf8.RuneCount(val)
	if pad <= 0 {
		buf.Write(val)
		return
	}
	if s.left {
		buf.Write(val)
		buf.WriteString(strings.Repeat(" ", pad))
		return
	}
	buf.WriteString(strings.Repeat(" ", pad))
	buf.Write(val)
}
