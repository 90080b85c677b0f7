package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestParse_Sections(t *testing.T) {
	e, _ := newTestEngine(t)
	text := `# sample
[global]
strict init = true
default format = "%m%n"
file perms = 644
buffer min = 1024

[levels]
TRACE = 10, LOG_DEBUG

[formats]
simple = "%c %V %m%n"

[rules]
app.TRACE      >stdout; simple
app_.=ERROR    >stderr
*.*            $capture, "p1"; json
!.*            >stdout
`
	rs, err := e.parse(source{text: text}, text)
	require.NoError(t, err)

	assert.True(t, rs.strict)
	assert.EqualValues(t, 0o644, rs.filePerm)
	assert.Equal(t, "%m%n", rs.defaultFormat.pattern)

	trace, ok := rs.levels.lookup("trace")
	require.True(t, ok)
	assert.Equal(t, 10, trace)
	assert.Equal(t, "TRACE", rs.levels.name(10))

	require.Len(t, rs.rules, 4)

	r := rs.rules[0]
	assert.Equal(t, matchExact, r.match)
	assert.Equal(t, "app", r.category)
	assert.True(t, r.levels.has(10))
	assert.True(t, r.levels.has(LevelFatal))
	assert.False(t, r.levels.has(9))
	assert.Equal(t, "simple", r.format.name)
	assert.Equal(t, ">stdout", r.out.String())

	r = rs.rules[1]
	assert.Equal(t, matchPrefix, r.match)
	assert.Equal(t, "app", r.category)
	assert.True(t, r.levels.has(LevelError))
	assert.False(t, r.levels.has(LevelWarn))
	assert.False(t, r.levels.has(LevelFatal))
	assert.Same(t, rs.defaultFormat, r.format)

	r = rs.rules[2]
	assert.Equal(t, matchAll, r.match)
	assert.True(t, r.format.json)
	rec, ok := r.out.(*recordOutput)
	require.True(t, ok)
	assert.Equal(t, "capture", rec.name)
	assert.Equal(t, "p1", rec.param)

	assert.Equal(t, matchFallback, rs.rules[3].match)
}

func TestParse_KeyedForm(t *testing.T) {
	e, _ := newTestEngine(t)
	text := `category.test = level.* "stdout"`
	rs, err := e.parse(source{text: text}, text)
	require.NoError(t, err)
	require.Len(t, rs.rules, 1)

	r := rs.rules[0]
	assert.Equal(t, "test", r.category)
	assert.True(t, r.levels.has(0))
	assert.True(t, r.levels.has(MaxLevel))
	out, ok := r.out.(*streamOutput)
	require.True(t, ok)
	assert.Equal(t, outStdout, out.name)
}

func TestParse_LevelSelectors(t *testing.T) {
	e, _ := newTestEngine(t)
	text := "a.!WARN >stdout\nb.! >stdout\nc.info >stdout\n"
	rs, err := e.parse(source{text: text}, text)
	require.NoError(t, err)
	require.Len(t, rs.rules, 3)

	assert.True(t, rs.rules[0].levels.has(LevelInfo))
	assert.False(t, rs.rules[0].levels.has(LevelWarn))
	assert.True(t, rs.rules[0].levels.has(LevelError))

	assert.True(t, rs.rules[1].levels.empty())

	assert.False(t, rs.rules[2].levels.has(LevelDebug))
	assert.True(t, rs.rules[2].levels.has(LevelInfo))
}

func TestParse_ContinuationAndImplicitRules(t *testing.T) {
	e, _ := newTestEngine(t)
	text := "app.INFO \\\n    >stdout\n\n# trailing comment\n"
	rs, err := e.parse(source{text: text}, text)
	require.NoError(t, err)
	require.Len(t, rs.rules, 1)
	assert.Equal(t, 1, rs.rules[0].line)
}

func TestParse_NonStrict(t *testing.T) {
	e, _ := newTestEngine(t)
	text := "[global]\nstrict init = false\nmystery = 1\n[rules]\napp.INFO >stdout; nope\n"
	rs, err := e.parse(source{text: text}, text)
	require.NoError(t, err)
	require.Len(t, rs.rules, 1)
	assert.Same(t, rs.defaultFormat, rs.rules[0].format)
}

func TestParse_FileOutputs(t *testing.T) {
	e, _ := newTestEngine(t)
	dir := t.TempDir()
	rotated := filepath.Join(dir, "app.log")
	plain := filepath.Join(dir, "plain.log")
	text := `app.INFO "` + rotated + `", 10MB * 3 ~ "app.#r.log"
app.DEBUG "` + rotated + `"
other.* "` + plain + `"
`
	rs, err := e.parse(source{text: text}, text)
	require.NoError(t, err)
	require.Len(t, rs.rules, 3)

	first := rs.rules[0].out.(*fileOutput)
	assert.EqualValues(t, 10<<20, first.maxBytes)
	assert.Equal(t, 3, first.backups)

	lj, ok := rs.files[rotated].(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, 10, lj.MaxSize)
	assert.Equal(t, 3, lj.MaxBackups)

	second := rs.rules[1].out.(*fileOutput)
	assert.True(t, first.w == second.w, "rules naming the same path share a writer")

	_, ok = rs.files[plain].(*plainFile)
	assert.True(t, ok)
	require.NoError(t, rs.close())
}

func TestParse_Errors(t *testing.T) {
	e, _ := newTestEngine(t)
	cases := map[string]string{
		"unknown section":      "[bogus]\n",
		"bad section header":   "[global\n",
		"unknown level":        "app.VERBOSE >stdout",
		"unsupported stream":   "app.INFO >syslog",
		"unknown format":       "app.INFO >stdout; nope",
		"reserved json":        "[formats]\njson = \"%m\"",
		"unknown conversion":   "[formats]\nbad = \"%q\"",
		"unquoted pattern":     "[formats]\nbad = %m",
		"unknown global":       "[global]\nwhat = 1",
		"bad bool":             "[global]\nstrict init = maybe",
		"level out of range":   "[levels]\nHUGE = 300",
		"missing selector dot": "appINFO >stdout",
		"missing output":       "app.INFO",
		"invalid size":         `app.INFO "/tmp/x.log", 10XB`,
		"unterminated path":    `app.INFO "/tmp/x.log`,
		"invalid category":     "a/b.INFO >stdout",
		"file perms too wide":  "[global]\nfile perms = 1777",
		"keyed without level":  `category.test = "stdout"`,
		"bad record name":      "app.INFO $9x",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.parse(source{text: text}, text)
			assert.Error(t, err)
		})
	}
}

func TestParseByteSize(t *testing.T) {
	good := map[string]int64{
		"10":   10,
		"1k":   1000,
		"1KB":  1024,
		"2mb":  2 << 20,
		"3M":   3000000,
		"1g":   1000000000,
		"1GB":  1 << 30,
		"5 mb": 5 << 20,
	}
	for in, want := range good {
		got, err := parseByteSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "mb", "5tb", "x1", "99999999999GB", "9223372036854775807k"} {
		_, err := parseByteSize(in)
		assert.Error(t, err, in)
	}
}

func TestParseCount(t *testing.T) {
	good := map[string]uint64{"10": 10, "10K": 10000, "2M": 2000000, "1g": 1000000000}
	for in, want := range good {
		got, err := parseCount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseCount("")
	assert.Error(t, err)
	_, err = parseCount("lots")
	assert.Error(t, err)
	_, err = parseCount("99999999999999G")
	assert.Error(t, err)
}
