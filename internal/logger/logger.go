// Package logger provides the structured, rotating logger used by every
// component of the HSS: the process entrypoint, the peer layer and the
// S6a command handlers each derive a named sub-logger from a single
// process-wide instance.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zerolog with file rotation.
type Logger struct {
	logger zerolog.Logger
	writer io.Writer
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Config holds logger configuration, normally populated from the process
// YAML config file.
type Config struct {
	Path       string
	Level      string
	Format     string // json or console
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Init initializes the global logger. Safe to call once at process start;
// subsequent calls are no-ops.
func Init(cfg Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(cfg)
	})
	return err
}

// New builds a standalone logger instance.
func New(cfg Config) (*Logger, error) {
	if cfg.Path != "" {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	var writer io.Writer
	if cfg.Path != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	} else {
		writer = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var zlog zerolog.Logger
	if cfg.Format == "console" {
		zlog = zerolog.New(zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	} else {
		zlog = zerolog.New(writer).With().Timestamp().Logger()
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zlog = zlog.Level(level)

	return &Logger{logger: zlog, writer: writer}, nil
}

// Get returns the global logger, falling back to a plain console logger
// if Init was never called (e.g. in tests).
func Get() *Logger {
	if globalLogger == nil {
		globalLogger = &Logger{logger: zerolog.New(os.Stdout).With().Timestamp().Logger(), writer: os.Stdout}
	}
	return globalLogger
}

func (l *Logger) Debug(msg string, fields ...interface{}) { l.emit(l.logger.Debug(), msg, fields...) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.emit(l.logger.Info(), msg, fields...) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.emit(l.logger.Warn(), msg, fields...) }

func (l *Logger) Error(msg string, err error, fields ...interface{}) {
	l.emit(l.logger.Error().Err(err), msg, fields...)
}

func (l *Logger) Fatal(msg string, err error, fields ...interface{}) {
	l.emit(l.logger.Fatal().Err(err), msg, fields...)
}

func (l *Logger) emit(event *zerolog.Event, msg string, fields ...interface{}) {
	if len(fields)%2 != 0 {
		event.Interface("invalid_fields", fields)
		event.Msg(msg)
		return
	}
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		event.Interface(key, fields[i+1])
	}
	event.Msg(msg)
}

// WithComponent returns a logger tagged with a component field, e.g.
// "s6a", "peer", "store".
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{logger: l.logger.With().Str("component", component).Logger(), writer: l.writer}
}

// WithIMSI tags a logger with the subscriber IMSI under processing.
func (l *Logger) WithIMSI(imsi string) *Logger {
	return &Logger{logger: l.logger.With().Str("imsi", imsi).Logger(), writer: l.writer}
}

// Global convenience functions operating on the process-wide logger.
func Debug(msg string, fields ...interface{})            { Get().Debug(msg, fields...) }
func Info(msg string, fields ...interface{})             { Get().Info(msg, fields...) }
func Warn(msg string, fields ...interface{})              { Get().Warn(msg, fields...) }
func Error(msg string, err error, fields ...interface{}) { Get().Error(msg, err, fields...) }
func Fatal(msg string, err error, fields ...interface{}) { Get().Fatal(msg, err, fields...) }
