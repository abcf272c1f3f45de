package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the global logger
type Options struct {
	Verbose bool

	// File enables a rotated JSON log alongside the console output
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console overrides stderr, mainly for tests
	Console io.Writer
}

// Init initializes the global logger. The returned closer flushes and
// closes the log file, if any.
func Init(opts Options) (io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    false,
	}

	if opts.File == "" {
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, err
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	log.Logger = NewLogger(output, file)
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger creates a new logger with optional writers
func NewLogger(writers ...io.Writer) zerolog.Logger {
	if len(writers) == 0 {
		return log.Logger
	}

	if len(writers) == 1 {
		return zerolog.New(writers[0]).With().Timestamp().Logger()
	}

	multi := zerolog.MultiLevelWriter(writers...)
	return zerolog.New(multi).With().Timestamp().Logger()
}

// WithComponent creates a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
