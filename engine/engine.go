package engine

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/Station-Manager/catlog/mdc"
	smerrors "github.com/Station-Manager/errors"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Version identifies the engine build.
const Version = "1.3.0"

// EnvConfPath names the rule file used by Init("").
const EnvConfPath = "CATLOG_CONF_PATH"

// fallbackRules is used by Init("") when EnvConfPath is unset.
const fallbackRules = "*.* >stdout"

const (
	phaseUninitialized int32 = iota
	phaseActive
	phaseFinalized
)

// Options configures an Engine.
type Options struct {
	// Diagnostics receives the engine's own errors. Nil discards them.
	Diagnostics *zerolog.Logger
	// Stdout and Stderr back the >stdout and >stderr outputs.
	Stdout io.Writer
	Stderr io.Writer
}

// Engine owns the active rule set and every category handle resolved from it.
type Engine struct {
	// mu is held for reading while a record is written and for writing
	// while the rule set is swapped, so swaps never overlap a write.
	mu      sync.RWMutex
	phase   atomic.Int32
	gen     atomic.Uint64
	rules   atomic.Pointer[ruleSet]
	calls   atomic.Uint64
	records map[string]RecordFunc

	catMu sync.Mutex
	cats  map[string]*Category

	stdout *lockedWriter
	stderr *lockedWriter
	diag   zerolog.Logger
	host   string
	pid    string
}

var bufPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// New returns an uninitialized engine.
func New(opts Options) *Engine {
	e := &Engine{
		records: make(map[string]RecordFunc),
		cats:    make(map[string]*Category),
		diag:    zerolog.Nop(),
		pid:     strconv.Itoa(os.Getpid()),
	}
	if opts.Diagnostics != nil {
		e.diag = *opts.Diagnostics
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	e.stdout = &lockedWriter{w: opts.Stdout}
	e.stderr = &lockedWriter{w: opts.Stderr}
	e.host, _ = os.Hostname()
	return e
}

// Init loads rules from path. An empty path falls back to $CATLOG_CONF_PATH
// and then to a single rule sending everything to stdout.
func (e *Engine) Init(path string) error {
	if path == "" {
		path = os.Getenv(EnvConfPath)
	}
	if path == "" {
		return e.init(source{text: fallbackRules})
	}
	return e.init(source{path: path})
}

// InitFromString loads rules from text.
func (e *Engine) InitFromString(text string) error {
	return e.init(source{text: text})
}

func (e *Engine) init(src source) error {
	const op smerrors.Op = "engine.Init"
	if err := e.uninitialized(); err != nil {
		return err
	}

	rs, err := e.load(src)
	if err != nil {
		e.logError(op, err, "init failed")
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.uninitialized(); err != nil {
		_ = rs.close()
		return err
	}
	e.rules.Store(rs)
	e.gen.Store(1)
	e.calls.Store(0)
	e.phase.Store(phaseActive)
	e.diag.Debug().Str("source", src.String()).Int("rules", len(rs.rules)).Msg("engine initialized")
	return nil
}

// Reload replaces the active rule set with one parsed from path, or from
// the current source when path is empty. On failure nothing changes.
func (e *Engine) Reload(path string) error {
	const op smerrors.Op = "engine.Reload"
	cur := e.rules.Load()
	if cur == nil {
		return e.lifecycleErr()
	}
	src := cur.src
	if path != "" {
		src = source{path: path}
	}

	rs, err := e.load(src)
	if err != nil {
		reloadsFailed.Inc()
		e.logError(op, err, "reload failed, keeping current rules")
		return err
	}

	e.mu.Lock()
	if e.phase.Load() != phaseActive {
		e.mu.Unlock()
		_ = rs.close()
		return e.lifecycleErr()
	}
	prev := e.rules.Swap(rs)
	gen := e.gen.Inc()
	e.calls.Store(0)
	e.mu.Unlock()

	if prev != nil {
		if err := prev.close(); err != nil {
			e.diag.Warn().Err(err).Msg("closing replaced outputs")
		}
	}
	reloadsOK.Inc()
	e.diag.Debug().Str("source", src.String()).Uint64("generation", gen).Msg("rules reloaded")
	return nil
}

// Fini closes every output and makes the engine permanently inert. Handles
// resolved earlier stay safe to use; they log nothing.
func (e *Engine) Fini() {
	e.mu.Lock()
	if e.phase.Load() == phaseFinalized {
		e.mu.Unlock()
		return
	}
	e.phase.Store(phaseFinalized)
	rs := e.rules.Swap(nil)
	e.mu.Unlock()

	if rs != nil {
		if err := rs.close(); err != nil {
			e.diag.Warn().Err(err).Msg("closing outputs")
		}
	}

	e.catMu.Lock()
	Categories.Sub(float64(len(e.cats)))
	e.cats = make(map[string]*Category)
	e.catMu.Unlock()
}

// Version returns the engine build identifier.
func (e *Engine) Version() string {
	return Version
}

// Generation is 0 before Init and increases by one on every successful Reload.
func (e *Engine) Generation() uint64 {
	return e.gen.Load()
}

// Active reports whether rules are loaded.
func (e *Engine) Active() bool {
	return e.phase.Load() == phaseActive
}

// Category resolves name against the active rules. Repeated calls return the
// same handle until Fini.
func (e *Engine) Category(name string) (*Category, error) {
	if e.rules.Load() == nil {
		return nil, e.lifecycleErr()
	}
	if name == "" {
		return nil, ErrCategoryNotFound
	}

	e.catMu.Lock()
	if e.phase.Load() == phaseFinalized {
		e.catMu.Unlock()
		return nil, ErrFinalized
	}
	c, ok := e.cats[name]
	if !ok {
		c = &Category{name: name, e: e}
		e.cats[name] = c
		Categories.Inc()
	}
	e.catMu.Unlock()

	b := c.current()
	if b == nil {
		return nil, e.lifecycleErr()
	}
	if len(b.rules) == 0 {
		return nil, ErrCategoryNotFound
	}
	return c, nil
}

// SetRecord registers fn as the target of `$name` outputs.
func (e *Engine) SetRecord(name string, fn RecordFunc) error {
	if name == "" || fn == nil {
		return ErrInvalidRecord
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase.Load() == phaseFinalized {
		return ErrFinalized
	}
	e.records[name] = fn
	return nil
}

// Check parses text without installing it.
func (e *Engine) Check(text string) error {
	rs, err := e.parse(source{text: text}, text)
	if err != nil {
		return err
	}
	return rs.close()
}

// CheckFile parses the rule file at path without installing it.
func (e *Engine) CheckFile(path string) error {
	rs, err := e.load(source{path: path})
	if err != nil {
		return err
	}
	return rs.close()
}

// Profile writes the engine state to diagnostics.
func (e *Engine) Profile() {
	rs := e.rules.Load()
	ev := e.diag.Warn().
		Str("version", Version).
		Bool("active", e.Active()).
		Uint64("generation", e.gen.Load())
	if rs == nil {
		ev.Msg("profile")
		return
	}
	formats := make([]string, 0, len(rs.formats))
	for name := range rs.formats {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	ev.Str("source", rs.src.String()).
		Bool("strict_init", rs.strict).
		Uint64("reload_conf_period", rs.reloadPeriod).
		Str("file_perms", strconv.FormatUint(uint64(rs.filePerm), 8)).
		Str("default_format", rs.defaultFormat.pattern).
		Strs("levels", rs.levels.sorted()).
		Strs("formats", formats).
		Msg("profile")

	for _, r := range rs.rules {
		e.diag.Warn().Int("line", r.line).Str("rule", r.text).
			Str("output", r.out.String()).Str("format", r.format.name).Msg("profile rule")
	}

	e.catMu.Lock()
	names := make([]string, 0, len(e.cats))
	for name := range e.cats {
		names = append(names, name)
	}
	e.catMu.Unlock()
	sort.Strings(names)
	for _, name := range names {
		e.catMu.Lock()
		c := e.cats[name]
		e.catMu.Unlock()
		if c == nil {
			continue
		}
		if b := c.current(); b != nil {
			e.diag.Warn().Str("category", name).Int("rules", len(b.rules)).
				Bool("switched", b.switched).Msg("profile category")
		}
	}
}

func (e *Engine) load(src source) (*ruleSet, error) {
	const op smerrors.Op = "engine.load"
	text := src.text
	if src.path != "" {
		b, err := os.ReadFile(src.path)
		if err != nil {
			return nil, smerrors.New(op).Err(err).Msg(errMsgReadConf)
		}
		text = string(b)
	}
	return e.parse(src, text)
}

func (e *Engine) uninitialized() error {
	switch e.phase.Load() {
	case phaseActive:
		return ErrAlreadyInitialized
	case phaseFinalized:
		return ErrFinalized
	}
	return nil
}

func (e *Engine) lifecycleErr() error {
	if e.phase.Load() == phaseFinalized {
		return ErrFinalized
	}
	return ErrNotInitialized
}

// tick counts log calls and reloads from file every `reload conf period` calls.
func (e *Engine) tick() {
	rs := e.rules.Load()
	if rs == nil || rs.reloadPeriod == 0 || rs.src.path == "" {
		return
	}
	if e.calls.Inc() != rs.reloadPeriod {
		return
	}
	if err := e.Reload(""); err != nil {
		e.calls.Store(0)
	}
}

type rendered struct {
	f   *format
	buf *bytes.Buffer
}

// emit renders rec once per distinct format and writes it to every rule of b
// that accepts its level. Caller holds e.mu for reading.
func (e *Engine) emit(ctx context.Context, name string, b *binding, rec *Record) {
	rc := renderCtx{
		category: name,
		rec:      rec,
		mdc:      mdc.FromContext(ctx),
		levels:   b.rs.levels,
		host:     e.host,
		pid:      e.pid,
	}

	var cache []rendered
	defer func() {
		for _, r := range cache {
			bufPool.Put(r.buf)
		}
	}()

	for _, r := range b.rules {
		if !b.switched && !r.levels.has(rec.Level) {
			continue
		}
		var buf *bytes.Buffer
		for _, c := range cache {
			if c.f == r.format {
				buf = c.buf
				break
			}
		}
		if buf == nil {
			buf = bufPool.Get().(*bytes.Buffer)
			buf.Reset()
			r.format.render(buf, &rc)
			cache = append(cache, rendered{f: r.format, buf: buf})
		}
		if err := r.out.write(buf.Bytes(), name, rec.Level); err != nil {
			recordsFailed.Inc()
			withErrorChain(e.diag.Warn(), err).
				Str("category", name).
				Str("output", r.out.String()).
				Msg("write failed")
			continue
		}
		recordsWritten.Inc()
	}
}
