// Package logging provides zerolog construction helpers shared by the
// server and CLI entry points.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a console logger at the given level. Unknown levels fall
// back to info.
func New(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewSilent creates a logger that discards all output. Used in tests and
// as the default for clients constructed without WithLogger.
func NewSilent() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
