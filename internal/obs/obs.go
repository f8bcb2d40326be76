// Package obs is the storage engine's operational logger: a process-wide
// structured logger used by the migration engine, the connector's retry
// loop, and the PostgreSQL notification consumer. The pure query-builder
// and AST packages stay side-effect-free and never import this package.
package obs

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var level = new(slog.LevelVar)

var logger atomic.Pointer[slog.Logger]

func init() {
	level.Set(slog.LevelInfo)
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// Op returns the process-wide operational logger.
func Op() *slog.Logger { return logger.Load() }

// SetLevelFromString sets the operational logger's level from a name
// ("debug", "info", "warn", "error"); an unrecognized name leaves the
// current level unchanged.
func SetLevelFromString(name string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return
	}
	level.Set(l)
}

// SetLogger replaces the process-wide operational logger, for embedding
// applications that want arion's diagnostics folded into their own
// handler.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}
