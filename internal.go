package catlog

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

func (s *Service) initializeRollingFileLogger() *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Clean(s.cfg.DiagFile),
		MaxBackups: s.cfg.DiagMaxBackups,
		MaxAge:     s.cfg.DiagMaxAgeDays,
		MaxSize:    s.cfg.DiagMaxSizeMB,
		Compress:   s.cfg.DiagCompress,
	}
}

func (s *Service) initializeWriters() []io.Writer {
	var writers []io.Writer

	if s.cfg.DiagFile != emptyString {
		s.fileWriter = s.initializeRollingFileLogger()
		writers = append(writers, s.fileWriter)
	}
	if s.cfg.DiagConsole {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, NoColor: s.cfg.DiagNoColor})
	}

	return writers
}

// newDiagnostics builds the logger the engine reports its own failures to.
func (s *Service) newDiagnostics() (zerolog.Logger, error) {
	writers := s.initializeWriters()
	if len(writers) == 0 {
		return zerolog.Nop(), nil
	}

	level := zerolog.WarnLevel
	if s.cfg.DiagLevel != emptyString {
		l, err := parseLevel(s.cfg.DiagLevel)
		if err != nil {
			return zerolog.Nop(), err
		}
		level = l
	}

	var w io.Writer = writers[0]
	if len(writers) > 1 {
		w = io.MultiWriter(writers...)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("component", ServiceName).Logger(), nil
}
