package seengo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with seengo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithChunk adds a chunk field to the logger.
func (l *Logger) WithChunk(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("chunk", name),
	}
}

// WithTotal adds a total field to the logger.
func (l *Logger) WithTotal(total int) *Logger {
	return &Logger{
		Logger: l.Logger.With("total", total),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, added bool, total int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"added", added,
			"total", total,
		)
	}
}

// LogImport logs a bulk import operation.
func (l *Logger) LogImport(ctx context.Context, mode string, newCount, duplicateCount int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "import failed",
			"mode", mode,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "import completed",
			"mode", mode,
			"new", newCount,
			"duplicates", duplicateCount,
		)
	}
}

// LogExport logs a bulk export operation.
func (l *Logger) LogExport(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "export failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "export completed",
			"count", count,
		)
	}
}

// LogClear logs a clear operation.
func (l *Logger) LogClear(ctx context.Context, removedChunks int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clear failed",
			"removed_chunks", removedChunks,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "clear completed",
			"removed_chunks", removedChunks,
		)
	}
}

// LogRepair logs an index rebuild.
func (l *Logger) LogRepair(ctx context.Context, chunks, total int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index rebuild failed",
			"error", err,
		)
	} else {
		l.WarnContext(ctx, "index rebuilt from chunk scan",
			"chunks", chunks,
			"total", total,
		)
	}
}

// LogOrphanCleanup logs a best-effort old-chunk deletion after an
// override commit.
func (l *Logger) LogOrphanCleanup(ctx context.Context, chunk string, err error) {
	if err != nil {
		l.WarnContext(ctx, "orphan chunk cleanup failed",
			"chunk", chunk,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "orphan chunk removed",
			"chunk", chunk,
		)
	}
}
