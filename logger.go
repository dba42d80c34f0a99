package tensorpack

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with tensorpack-specific helpers so that the
// library logs with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. If handler is nil, a
// text handler to stderr at Info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewJSONLogger creates a Logger that writes JSON-formatted logs to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all output. It is the default
// for Writers and Readers.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// LogCreate logs container creation with its derived contract.
func (l *Logger) LogCreate(path string, input, target string) {
	l.Debug("container created",
		"path", path,
		"input", input,
		"target", target,
	)
}

// LogPack logs a pack operation.
func (l *Logger) LogPack(count int, err error) {
	if err != nil {
		l.Error("pack failed",
			"count", count,
			"error", err,
		)
	} else {
		l.Debug("record packed",
			"count", count,
		)
	}
}

// LogFinalize logs the finalize operation.
func (l *Logger) LogFinalize(path string, count int, err error) {
	if err != nil {
		l.Error("finalize failed",
			"path", path,
			"count", count,
			"error", err,
		)
	} else {
		l.Info("container finalized",
			"path", path,
			"count", count,
		)
	}
}

// LogOpen logs a reader open.
func (l *Logger) LogOpen(path string, count int, mmap bool) {
	l.Debug("container opened",
		"path", path,
		"count", count,
		"mmap", mmap,
	)
}

// LogLoad logs a failed load. Successful loads are not logged; they are
// far too frequent on the training hot path.
func (l *Logger) LogLoad(index int, err error) {
	if err != nil {
		l.Error("load failed",
			"index", index,
			"error", err,
		)
	}
}
