package pie

import (
	"log/slog"

	"github.com/setanarut/pie/backend"
)

// SetLogger configures logging for pie and its backends. By default nothing
// is logged. Pass nil to disable logging again.
//
//	pie.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	backend.SetLogger(l)
}

// Logger returns the logger shared with the backends.
func Logger() *slog.Logger {
	return backend.Logger()
}
