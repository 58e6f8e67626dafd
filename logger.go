package hdcmem

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with hdcmem-specific helpers so that every
// operation logs with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable logs to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger that writes JSON logs to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable
	}))
}

// LogPut logs a record insertion.
func (l *Logger) LogPut(ctx context.Context, id string, pairs int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "put failed",
			"id", id,
			"pairs", pairs,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "put completed",
		"id", id,
		"pairs", pairs,
	)
}

// LogQuery logs a similarity query.
func (l *Logger) LogQuery(ctx context.Context, pairs, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"pairs", pairs,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "query completed",
		"pairs", pairs,
		"results", results,
	)
}

// LogDecode logs a slot decode.
func (l *Logger) LogDecode(ctx context.Context, id, role, filler string, score float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "decode failed",
			"id", id,
			"role", role,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "decode completed",
		"id", id,
		"role", role,
		"filler", filler,
		"score", score,
	)
}
