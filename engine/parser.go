package engine

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	smerrors "github.com/Station-Manager/errors"
	"github.com/go-playground/validator/v10"
)

const (
	sectionGlobal  = "global"
	sectionLevels  = "levels"
	sectionFormats = "formats"
	sectionRules   = "rules"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// globalSettings is the [global] section.
type globalSettings struct {
	StrictInit       bool
	ReloadConfPeriod uint64 `validate:"lte=1000000000000"`
	DefaultFormat    string `validate:"required"`
	FilePerms        uint32 `validate:"gt=0,lte=511"`
}

type confLine struct {
	no   int
	text string
}

// parse builds a rule set from text. Outputs are created but no file is
// opened until the first record reaches it.
func (e *Engine) parse(src source, text string) (*ruleSet, error) {
	const op smerrors.Op = "engine.parse"

	sections, err := splitSections(splitLines(text))
	if err != nil {
		return nil, smerrors.New(op).Errorf("%v", err)
	}

	settings, err := e.parseGlobal(sections[sectionGlobal])
	if err != nil {
		return nil, smerrors.New(op).Errorf("%v", err)
	}
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(settings); err != nil {
		return nil, smerrors.New(op).Err(err).Msg(errMsgSettings)
	}

	rs := &ruleSet{
		src:          src,
		strict:       settings.StrictInit,
		reloadPeriod: settings.ReloadConfPeriod,
		filePerm:     os.FileMode(settings.FilePerms),
		levels:       defaultLevels(),
		formats:      map[string]*format{JSONFormat: jsonFormat()},
		files:        make(map[string]io.WriteCloser),
	}

	for _, l := range sections[sectionLevels] {
		if err := parseLevelLine(rs.levels, l.text); err != nil {
			return nil, smerrors.New(op).Errorf("line %d: %v", l.no, err)
		}
	}

	if rs.defaultFormat, err = compileFormat("default", settings.DefaultFormat); err != nil {
		return nil, smerrors.New(op).Errorf("default format: %v", err)
	}
	for _, l := range sections[sectionFormats] {
		f, err := parseFormatLine(l.text)
		if err != nil {
			return nil, smerrors.New(op).Errorf("line %d: %v", l.no, err)
		}
		rs.formats[f.name] = f
	}

	for _, l := range sections[sectionRules] {
		r, err := e.parseRule(rs, l)
		if err != nil {
			_ = rs.close()
			return nil, smerrors.New(op).Errorf("line %d: %v", l.no, err)
		}
		rs.rules = append(rs.rules, r)
	}
	return rs, nil
}

// splitLines joins `\` continuations and drops blanks and comments.
func splitLines(text string) []confLine {
	var out []confLine
	var cur strings.Builder
	start := 0
	continuing := false
	flush := func() {
		s := strings.TrimSpace(cur.String())
		cur.Reset()
		continuing = false
		if s == "" || strings.HasPrefix(s, "#") {
			return
		}
		out = append(out, confLine{no: start, text: s})
	}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		if !continuing {
			start = i + 1
		}
		if strings.HasSuffix(line, "\\") {
			cur.WriteString(strings.TrimSuffix(line, "\\"))
			continuing = true
			continue
		}
		cur.WriteString(line)
		flush()
	}
	if continuing {
		flush()
	}
	return out
}

// splitSections groups lines by section. Lines before the first header are rules.
func splitSections(lines []confLine) (map[string][]confLine, error) {
	out := make(map[string][]confLine)
	cur := sectionRules
	for _, l := range lines {
		if !strings.HasPrefix(l.text, "[") {
			out[cur] = append(out[cur], l)
			continue
		}
		if !strings.HasSuffix(l.text, "]") {
			return nil, fmt.Errorf("line %d: malformed section header %q", l.no, l.text)
		}
		name := strings.ToLower(strings.TrimSpace(l.text[1 : len(l.text)-1]))
		switch name {
		case sectionGlobal, sectionLevels, sectionFormats, sectionRules:
			cur = name
		default:
			return nil, fmt.Errorf("line %d: unknown section [%s]", l.no, name)
		}
	}
	return out, nil
}

func (e *Engine) parseGlobal(lines []confLine) (globalSettings, error) {
	s := globalSettings{StrictInit: true, DefaultFormat: DefaultFormat, FilePerms: 0o600}
	var unknown []confLine

	for _, l := range lines {
		key, val, ok := strings.Cut(l.text, "=")
		if !ok {
			return s, fmt.Errorf("line %d: expected key = value", l.no)
		}
		key = strings.Join(strings.Fields(strings.ToLower(key)), " ")
		val = strings.TrimSpace(val)

		var err error
		switch key {
		case "strict init":
			s.StrictInit, err = strconv.ParseBool(val)
		case "reload conf period":
			s.ReloadConfPeriod, err = parseCount(val)
		case "default format":
			s.DefaultFormat, err = unquote(val)
		case "file perms":
			var perm uint64
			perm, err = strconv.ParseUint(val, 8, 32)
			s.FilePerms = uint32(perm)
		case "buffer min", "buffer max", "rotate lock file", "fsync period":
			e.diag.Debug().Str("key", key).Int("line", l.no).Msg("global setting accepted and ignored")
		default:
			unknown = append(unknown, l)
		}
		if err != nil {
			return s, fmt.Errorf("line %d: %s: %v", l.no, key, err)
		}
	}

	for _, l := range unknown {
		if s.StrictInit {
			return s, fmt.Errorf("line %d: unknown global setting %q", l.no, l.text)
		}
		e.diag.Warn().Int("line", l.no).Str("setting", l.text).Msg("unknown global setting skipped")
	}
	return s, nil
}

func parseLevelLine(t *levelTable, text string) error {
	name, val, ok := strings.Cut(text, "=")
	if !ok {
		return fmt.Errorf("expected NAME = value")
	}
	name = strings.TrimSpace(name)
	if !isIdent(name) {
		return fmt.Errorf("invalid level name %q", name)
	}
	num, _, _ := strings.Cut(val, ",")
	level, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return fmt.Errorf("level %s: %v", name, err)
	}
	if level < 1 || level > maxUserLevel {
		return fmt.Errorf("level %s = %d outside [1, %d]", name, level, maxUserLevel)
	}
	t.set(name, level)
	return nil
}

func parseFormatLine(text string) (*format, error) {
	name, val, ok := strings.Cut(text, "=")
	if !ok {
		return nil, fmt.Errorf("expected name = \"pattern\"")
	}
	name = strings.TrimSpace(name)
	if !isIdent(name) {
		return nil, fmt.Errorf("invalid format name %q", name)
	}
	if name == JSONFormat {
		return nil, fmt.Errorf("format name %q is reserved", JSONFormat)
	}
	pattern, err := unquote(strings.TrimSpace(val))
	if err != nil {
		return nil, fmt.Errorf("format %s: %v", name, err)
	}
	return compileFormat(name, pattern)
}

func (e *Engine) parseRule(rs *ruleSet, l confLine) (*rule, error) {
	text := l.text
	// keyed form: category.NAME = level.SELECTOR OUTPUT
	if rest, ok := strings.CutPrefix(text, "category."); ok {
		if eq := strings.IndexByte(rest, '='); eq >= 0 && !strings.ContainsRune(rest[:eq], '"') {
			sel, ok := strings.CutPrefix(strings.TrimSpace(rest[eq+1:]), "level.")
			if !ok {
				return nil, fmt.Errorf("keyed rule needs level.SELECTOR after '='")
			}
			text = strings.TrimSpace(rest[:eq]) + "." + sel
		}
	}

	selector, rest := cutField(text)
	dot := strings.IndexByte(selector, '.')
	if dot <= 0 || dot == len(selector)-1 {
		return nil, fmt.Errorf("selector %q must be CATEGORY.LEVEL", selector)
	}
	r := &rule{line: l.no, text: l.text}

	cat := selector[:dot]
	switch {
	case cat == "*":
		r.match = matchAll
	case cat == "!":
		r.match = matchFallback
	case len(cat) > 1 && strings.HasSuffix(cat, "_") && isCategoryName(cat):
		r.match, r.category = matchPrefix, strings.TrimSuffix(cat, "_")
	case isCategoryName(cat):
		r.match, r.category = matchExact, cat
	default:
		return nil, fmt.Errorf("invalid category %q", cat)
	}

	levels, err := parseLevelSelector(rs.levels, selector[dot+1:])
	if err != nil {
		return nil, err
	}
	r.levels = levels

	outPart, formatName := splitFormat(rest)
	if r.out, err = e.parseOutput(rs, outPart); err != nil {
		return nil, err
	}

	switch {
	case formatName == "":
		r.format = rs.defaultFormat
	case rs.formats[formatName] != nil:
		r.format = rs.formats[formatName]
	case rs.strict:
		return nil, fmt.Errorf("unknown format %q", formatName)
	default:
		e.diag.Warn().Int("line", l.no).Str("format", formatName).Msg("unknown format, using default")
		r.format = rs.defaultFormat
	}
	return r, nil
}

func parseLevelSelector(t *levelTable, sel string) (levelSet, error) {
	var s levelSet
	switch {
	case sel == "*":
		return levelsAtLeast(0), nil
	case sel == "!":
		return s, nil
	case sel[0] == '=' || sel[0] == '!':
		l, ok := t.lookup(sel[1:])
		if !ok {
			return s, fmt.Errorf("unknown level %q", sel[1:])
		}
		if sel[0] == '=' {
			s.add(l)
			return s, nil
		}
		s = levelsAtLeast(0)
		s.remove(l)
		return s, nil
	}
	l, ok := t.lookup(sel)
	if !ok {
		return s, fmt.Errorf("unknown level %q", sel)
	}
	return levelsAtLeast(l), nil
}

func (e *Engine) parseOutput(rs *ruleSet, s string) (output, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("missing output")
	}
	switch s[0] {
	case '>':
		return e.streamOutput(strings.ToLower(strings.TrimSpace(s[1:])))
	case '$':
		name, param, hasParam := strings.Cut(s[1:], ",")
		name = strings.TrimSpace(name)
		if !isIdent(name) {
			return nil, fmt.Errorf("invalid record name %q", name)
		}
		o := &recordOutput{name: name, e: e}
		if hasParam {
			p, err := unquote(strings.TrimSpace(param))
			if err != nil {
				return nil, fmt.Errorf("record $%s param: %v", name, err)
			}
			o.param = p
		}
		return o, nil
	case '"':
		path, rest, err := readQuoted(s)
		if err != nil {
			return nil, err
		}
		rest = strings.TrimSpace(rest)
		if (path == outStdout || path == outStderr) && rest == "" {
			return e.streamOutput(path)
		}
		if path == "" {
			return nil, fmt.Errorf("empty file path")
		}
		o := &fileOutput{path: path}
		if rest != "" {
			if rest[0] != ',' {
				return nil, fmt.Errorf("unexpected %q after file path", rest)
			}
			if err := parseRotation(o, strings.TrimSpace(rest[1:])); err != nil {
				return nil, err
			}
		}
		w, ok := rs.files[path]
		if !ok {
			w = newFileWriter(path, rs.filePerm, o.maxBytes, o.backups)
			rs.files[path] = w
		}
		o.w = w
		return o, nil
	}
	return nil, fmt.Errorf("unsupported output %q", s)
}

func (e *Engine) streamOutput(name string) (output, error) {
	switch name {
	case outStdout:
		return &streamOutput{name: name, w: e.stdout}, nil
	case outStderr:
		return &streamOutput{name: name, w: e.stderr}, nil
	}
	return nil, fmt.Errorf("unsupported stream >%s", name)
}

// parseRotation reads `SIZE[ * COUNT][ ~ "pattern"]`. The archive pattern is
// accepted for compatibility; lumberjack names backups itself.
func parseRotation(o *fileOutput, s string) error {
	if i := strings.IndexByte(s, '~'); i >= 0 {
		if _, _, err := readQuoted(strings.TrimSpace(s[i+1:])); err != nil {
			return fmt.Errorf("archive pattern: %v", err)
		}
		s = strings.TrimSpace(s[:i])
	}
	size, count, hasCount := strings.Cut(s, "*")
	n, err := parseByteSize(strings.TrimSpace(size))
	if err != nil {
		return err
	}
	o.maxBytes = n
	if hasCount {
		c, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || c < 0 {
			return fmt.Errorf("invalid rotation count %q", strings.TrimSpace(count))
		}
		o.backups = c
	}
	return nil
}

var byteUnits = map[string]int64{
	"":   1,
	"b":  1,
	"k":  1000,
	"kb": 1 << 10,
	"m":  1000 * 1000,
	"mb": 1 << 20,
	"g":  1000 * 1000 * 1000,
	"gb": 1 << 30,
}

func parseByteSize(s string) (int64, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %v", s, err)
	}
	unit, ok := byteUnits[strings.ToLower(strings.TrimSpace(s[i:]))]
	if !ok {
		return 0, fmt.Errorf("invalid size unit in %q", s)
	}
	if n > math.MaxInt64/unit {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return n * unit, nil
}

func parseCount(s string) (uint64, error) {
	mult := uint64(1)
	switch strings.ToUpper(s[len(s)-min(1, len(s)):]) {
	case "K":
		mult = 1000
	case "M":
		mult = 1000 * 1000
	case "G":
		mult = 1000 * 1000 * 1000
	}
	if mult > 1 {
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint64/mult {
		return 0, fmt.Errorf("count %q overflows", s)
	}
	return n * mult, nil
}

// splitFormat splits "output; format" on the first ';' outside quotes.
func splitFormat(s string) (string, string) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return s[:i], strings.TrimSpace(s[i+1:])
			}
		}
	}
	return s, ""
}

func readQuoted(s string) (string, string, error) {
	if len(s) == 0 || s[0] != '"' {
		return "", "", fmt.Errorf("expected quoted string at %q", s)
	}
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return "", "", fmt.Errorf("unterminated quote in %q", s)
	}
	return s[1 : end+1], s[end+2:], nil
}

func unquote(s string) (string, error) {
	v, rest, err := readQuoted(s)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(rest) != "" {
		return "", fmt.Errorf("unexpected %q after quoted string", rest)
	}
	return v, nil
}

func cutField(s string) (string, string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func isCategoryName(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c == '_', c == '-', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
