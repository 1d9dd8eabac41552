// Package logger provides the shared zerolog setup for the CLI and engine.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger writing to stderr. Verbose enables debug level and the
// human-readable console format; otherwise output is JSON at info level.
func New(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	var out io.Writer = os.Stderr
	if verbose {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Nop returns a disabled logger for tests and library defaults.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
