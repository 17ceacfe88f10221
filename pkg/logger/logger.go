package logger

import (
	"log"
	"log/slog"
)

// New returns a stdlib *log.Logger that writes through the slog handler,
// tagged with the component name. Useful for libraries that expect Printf loggers.
func New(base *slog.Logger, component string) *log.Logger {
	if base == nil {
		base = slog.Default()
	}
	return slog.NewLogLogger(base.With("component", component).Handler(), slog.LevelInfo)
}
