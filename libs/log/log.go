// Package log wraps zerolog with the node-wide defaults.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

// SetOutput replaces the writer used by the package logger.
func SetOutput(w io.Writer) {
	logger = logger.Output(w)
}

// SetLevel parses lvl ("debug", "info", ...) and applies it globally.
// Unknown levels fall back to info.
func SetLevel(lvl string) {
	l, err := zerolog.ParseLevel(lvl)
	if err != nil || lvl == "" {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
}

// Logger returns the package logger.
func Logger() zerolog.Logger { return logger }

// With creates a child logger context.
func With() zerolog.Context { return logger.With() }

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

func Debug() *zerolog.Event { return logger.Debug() }
func Info() *zerolog.Event  { return logger.Info() }
func Warn() *zerolog.Event  { return logger.Warn() }
func Error() *zerolog.Event { return logger.Error() }
func Fatal() *zerolog.Event { return logger.Fatal() }
