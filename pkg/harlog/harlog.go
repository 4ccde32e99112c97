// Package harlog centralizes the zerolog setup used across every package
// in this module, in place of the teacher's bare calls to the standard
// library "log" package (see cmd/bes, pkg/serve/bes/syncer). The original
// Rust implementation logs tersely and only at a handful of points
// (log::debug! around task lifecycle, dot_har resolution); this package
// keeps that same uneven density rather than instrumenting everything.
package harlog

import (
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Logger returns the process-wide logger, writing console-formatted
// output to stderr. Every line carries a "run" field, a fresh uuid minted
// once per process, so log lines from concurrent invocations against the
// same remote (e.g. two pushes running at once) can be told apart. It is
// safe to call from any goroutine.
func Logger() zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}).
			With().Timestamp().Str("run", uuid.NewString()).Logger()
	})
	return logger
}

// SetLevel adjusts the global minimum log level.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// For names a component so its log lines carry a "component" field,
// matching the granularity of the original's module-scoped debug! calls.
func For(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}
