package sandbox

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/sandbox/client"
	"github.com/gogpu/sandbox/overlay"
	"github.com/gogpu/sandbox/render"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for sandbox and its sub-packages
// (render, overlay, client). By default nothing is logged.
//
// Pass nil to restore the silent default.
//
// Log levels used by sandbox:
//   - [slog.LevelDebug]: buffer sizes, pipeline and shader details
//   - [slog.LevelInfo]: adapter enumeration and selection, lifecycle events
//   - [slog.LevelWarn]: skipped frames, surface reconfiguration, overlay failures
//   - [slog.LevelError]: fatal frame errors
//
// Example:
//
//	sandbox.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	render.SetLogger(l)
	overlay.SetLogger(l)
	client.SetLogger(l)
}

// Logger returns the current logger used by sandbox.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
