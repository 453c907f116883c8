// Package logx is a thin package-level logging indirection over zerolog,
// in the spirit of the corpus's tracer()-style wrappers (see
// npillmayer/fp's use of a logging indirection sourced from
// github.com/npillmayer/schuko): callers log through a handful of
// leveled functions rather than depending on the concrete logger directly.
package logx

import (
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stderr).With().Timestamp().Str("component", "ivtree").Logger()

// SetLogger replaces the package-level logger, e.g. to redirect output or
// raise/lower the level in tests.
func SetLogger(l zerolog.Logger) { logger = l }

// Debug logs a debug-level line. No code in the module currently logs at
// this level.
func Debug() *zerolog.Event { return logger.Debug() }

// Warn logs a warn-level line.
func Warn() *zerolog.Event { return logger.Warn() }

// Error logs an error-level line.
func Error() *zerolog.Event { return logger.Error() }
