package catlog

import (
	"sync"

	"github.com/Station-Manager/catlog/engine"
	"github.com/Station-Manager/errors"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	phaseUninitialized int32 = iota
	phaseActive
	phaseFinalized
)

// Service is one logging configuration context: an engine, its lifecycle
// phase, the default category and the MDC limits. Independent services do
// not share state.
type Service struct {
	cfg        *Config
	factory    EngineFactory
	opts       engine.Options
	diag       zerolog.Logger
	fileWriter *lumberjack.Logger

	// mu serialises lifecycle transitions. Logging never takes it.
	mu    sync.Mutex
	eng   atomic.Pointer[engineRef]
	phase atomic.Int32
	def   atomic.Pointer[Category]
	cats  sync.Map // name -> *Category

	// records mirrors every SetRecord so a replacement engine gets them too.
	recMu   sync.Mutex
	records map[string]engine.RecordFunc

	mdcKeyMax   int
	mdcValueMax int
}

type engineRef struct {
	Engine
}

// NewService returns an uninitialized Service backed by the built-in engine.
func NewService(cfg *Config) (*Service, error) {
	return NewServiceWithEngine(cfg, NewEngine)
}

// NewServiceWithEngine returns an uninitialized Service whose engines are
// built by factory. A nil factory selects the built-in engine.
func NewServiceWithEngine(cfg *Config, factory EngineFactory) (*Service, error) {
	const op errors.Op = "catlog.NewServiceWithEngine"
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if factory == nil {
		factory = NewEngine
	}

	s := &Service{
		cfg:         cfg,
		factory:     factory,
		mdcKeyMax:   cfg.MDCMaxKeyLen,
		mdcValueMax: cfg.MDCMaxValueLen,
	}
	if s.mdcKeyMax == 0 {
		s.mdcKeyMax = defaultMDCLimit
	}
	if s.mdcValueMax == 0 {
		s.mdcValueMax = defaultMDCLimit
	}

	diag, err := s.newDiagnostics()
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}
	s.diag = diag
	s.opts = engine.Options{Diagnostics: &s.diag, Stdout: cfg.Stdout, Stderr: cfg.Stderr}

	eng := factory(s.opts)
	if eng == nil {
		return nil, errors.New(op).Msg(errMsgNilEngine)
	}
	s.eng.Store(&engineRef{eng})
	return s, nil
}

func (s *Service) engine() Engine {
	return s.eng.Load().Engine
}

// Init loads rules from path and activates the service. On failure the
// service stays uninitialized and Init may be retried.
func (s *Service) Init(path string) error {
	return s.initWith(func(e Engine) error { return e.Init(path) })
}

// InitFromString is Init with the rules given as text.
func (s *Service) InitFromString(text string) error {
	return s.initWith(func(e Engine) error { return e.InitFromString(text) })
}

func (s *Service) initWith(load func(Engine) error) error {
	const op errors.Op = "catlog.Service.Init"
	if s == nil {
		return errors.New(op).Msg(errMsgNilService)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.uninitialized(); err != nil {
		return err
	}
	if err := load(s.engine()); err != nil {
		return err
	}
	s.phase.Store(phaseActive)
	return nil
}

// Reload swaps in rules parsed from path, or re-reads the current source when
// path is empty. A failed reload leaves the active rules untouched.
func (s *Service) Reload(path string) error {
	const op errors.Op = "catlog.Service.Reload"
	if s == nil {
		return errors.New(op).Msg(errMsgNilService)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return err
	}
	return s.engine().Reload(path)
}

// Finalize releases every engine resource. It is terminal and idempotent;
// categories resolved earlier become inert.
func (s *Service) Finalize() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase.Load() == phaseFinalized {
		return
	}
	s.phase.Store(phaseFinalized)
	s.def.Store(nil)
	s.engine().Fini()
	s.cats.Range(func(k, _ any) bool {
		s.cats.Delete(k)
		return true
	})
	if s.fileWriter != nil {
		_ = s.fileWriter.Close()
	}
}

// Close finalizes the service. It's safe to call Close multiple times.
func (s *Service) Close() error {
	s.Finalize()
	return nil
}

// Version returns the engine build identifier. It has no lifecycle
// precondition.
func (s *Service) Version() string {
	if s == nil {
		return engine.Version
	}
	return s.engine().Version()
}

// Generation is 0 before Init and grows by one on each successful reload.
func (s *Service) Generation() uint64 {
	if s == nil {
		return 0
	}
	return s.engine().Generation()
}

// Active reports whether the service is initialized and not finalized.
func (s *Service) Active() bool {
	return s != nil && s.phase.Load() == phaseActive
}

// SetRecord registers fn as the target of `$name` rule outputs.
func (s *Service) SetRecord(name string, fn engine.RecordFunc) error {
	const op errors.Op = "catlog.Service.SetRecord"
	if s == nil {
		return errors.New(op).Msg(errMsgNilService)
	}
	if s.phase.Load() == phaseFinalized {
		return ErrFinalized
	}
	s.recMu.Lock()
	defer s.recMu.Unlock()
	if err := s.engine().SetRecord(name, fn); err != nil {
		return err
	}
	if s.records == nil {
		s.records = make(map[string]engine.RecordFunc)
	}
	s.records[name] = fn
	return nil
}

// replaceEngine installs next and hands it every registered record function.
func (s *Service) replaceEngine(next Engine) {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	s.eng.Store(&engineRef{next})
	for name, fn := range s.records {
		if err := next.SetRecord(name, fn); err != nil {
			s.diag.Warn().Str("record", name).Err(err).Msg(errMsgRecordRestore)
		}
	}
}

// Profile writes the engine and facade state to the diagnostics logger.
func (s *Service) Profile() {
	if s == nil {
		return
	}
	ev := s.diag.Warn().Int32("phase", s.phase.Load())
	if c := s.def.Load(); c != nil {
		ev = ev.Str("default_category", c.Name())
	}
	ev.Int("mdc_max_key", s.mdcKeyMax).Int("mdc_max_value", s.mdcValueMax).Msg("facade profile")
	s.engine().Profile()
}

func (s *Service) uninitialized() error {
	switch s.phase.Load() {
	case phaseActive:
		return ErrAlreadyInitialized
	case phaseFinalized:
		return ErrFinalized
	}
	return nil
}

func (s *Service) active() error {
	switch s.phase.Load() {
	case phaseUninitialized:
		return ErrNotInitialized
	case phaseFinalized:
		return ErrFinalized
	}
	return nil
}
