// Copyright © 2024 Galvanized Logic Inc.

// Package telemetry is the engine's process-wide logging sink and metrics
// registry (spec §6 "Environment / process-wide state": "a single logging
// sink with a level atomic; a tracing subsystem (zone counters) that must
// be inert when disabled").
package telemetry

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// log.go wraps github.com/rs/zerolog (SPEC_FULL.md §A "Logging"). The
// level is an atomic so any goroutine can raise/lower verbosity (e.g. a
// debug console command) without a lock, matching spec §6's "level
// atomic." Every subsystem is handed a *Log (or a derived zerolog.Logger)
// at construction per Design Notes' "avoid true globals" — this type is
// the one process-wide instance the top-level engine.Engine owns and
// threads through.
type Log struct {
	logger zerolog.Logger
	level  atomic.Int32
}

// New constructs a Log writing human-readable console output to w (or
// os.Stderr if w is nil), starting at level.
func New(w *os.File, level zerolog.Level) *Log {
	if w == nil {
		w = os.Stderr
	}
	l := &Log{}
	l.level.Store(int32(level))
	writer := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	l.logger = zerolog.New(writer).With().Timestamp().Logger().Level(level)
	return l
}

// SetLevel atomically changes the minimum level that reaches the sink.
func (l *Log) SetLevel(level zerolog.Level) {
	l.level.Store(int32(level))
	l.logger = l.logger.Level(level)
}

// Level returns the currently configured minimum level.
func (l *Log) Level() zerolog.Level { return zerolog.Level(l.level.Load()) }

// For returns a child logger tagged with a "component" field, the
// per-subsystem logger every package constructor takes instead of a bare
// package-level global.
func (l *Log) For(component string) zerolog.Logger {
	return l.logger.With().Str("component", component).Logger()
}

// Fatal logs msg at fatal level and aborts the process, matching spec
// §7's "Fatal: ... abort with message" and the teacher's log.Fatal-on-
// init-failure convention in eng.go.
func (l *Log) Fatal(msg string, err error) {
	l.logger.Fatal().Err(err).Msg(msg)
}
