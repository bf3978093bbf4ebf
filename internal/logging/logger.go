// Package logging configures log/slog for the server and CLI.
//
// Request-scoped loggers pick up the id set by chi's RequestID middleware so
// every line logged while handling a bid can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs the default slog logger and returns it.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// A nil writer logs to stdout. The CLI passes stderr so command output
// (exports) stays clean on stdout.
func Setup(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := slog.New(NewHandler(level, format, w))
	slog.SetDefault(logger)
	return logger
}

// NewHandler builds the text or JSON handler for the given level.
func NewHandler(level, format string, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns the default logger with request_id attached when the
// context carries one.
//
//	func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("sale recorded", "player_id", id)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

// WithFields returns base with the context's request_id and the extra
// fields attached, for multi-step work such as an import. A nil base means
// slog.Default().
func WithFields(ctx context.Context, base *slog.Logger, args ...any) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		base = base.With("request_id", reqID)
	}
	return base.With(args...)
}
