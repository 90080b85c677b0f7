package catlog

import (
	"io"
	"os"
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/go-playground/validator/v10"
)

// Config holds the runtime options of a Service. The rule text itself is
// passed to Init, InitFromString or Reload.
type Config struct {
	// DiagLevel is the zerolog level of the engine's own diagnostics.
	DiagLevel string `validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	// DiagConsole writes diagnostics to stderr through a console writer.
	DiagConsole bool
	DiagNoColor bool
	// DiagFile, when set, writes diagnostics to a rolling file.
	DiagFile       string
	DiagMaxSizeMB  int `validate:"gte=0,lte=10240"`
	DiagMaxBackups int `validate:"gte=0,lte=1000"`
	DiagMaxAgeDays int `validate:"gte=0,lte=3650"`
	DiagCompress   bool

	MDCMaxKeyLen   int `validate:"gte=0,lte=65536"`
	MDCMaxValueLen int `validate:"gte=0,lte=1048576"`

	// Stdout and Stderr back the >stdout and >stderr rule outputs.
	Stdout io.Writer `validate:"-"`
	Stderr io.Writer `validate:"-"`
}

// DefaultConfig discards diagnostics and uses the process streams.
func DefaultConfig() *Config {
	return &Config{
		DiagLevel:      "warn",
		DiagMaxSizeMB:  10,
		DiagMaxBackups: 3,
		DiagMaxAgeDays: 7,
		MDCMaxKeyLen:   defaultMDCLimit,
		MDCMaxValueLen: defaultMDCLimit,
	}
}

// ApplyEnv applies CATLOG_PROFILE_ERROR and CATLOG_PROFILE_DEBUG. The debug
// variable wins when both are set.
func (c *Config) ApplyEnv() *Config {
	if c == nil {
		return nil
	}
	if p := os.Getenv(EnvProfileError); p != emptyString {
		c.DiagFile = p
		c.DiagLevel = "warn"
	}
	if p := os.Getenv(EnvProfileDebug); p != emptyString {
		c.DiagFile = p
		c.DiagLevel = "debug"
	}
	return c
}

var validate *validator.Validate
var once sync.Once

func validateConfig(cfg *Config) error {
	const op errors.Op = "catlog.validateConfig"
	if cfg == nil {
		return errors.New(op).Msg(errMsgNilConfig)
	}

	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	if err := validate.Struct(cfg); err != nil {
		return errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}

	return nil
}
