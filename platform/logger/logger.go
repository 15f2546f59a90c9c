// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithBatch returns a logger scoped to one batch run.
func (l *Logger) WithBatch(batchID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("batch_id", batchID)),
	}
}

// WithWorker returns a logger scoped to one orchestrator worker.
func (l *Logger) WithWorker(workerID int) *Logger {
	return &Logger{
		Logger: l.With(slog.Int("worker", workerID)),
	}
}

// SubmissionResult logs the outcome of one inquiry submission attempt.
func (l *Logger) SubmissionResult(partNumber, supplier, status string, err error) {
	if err != nil {
		l.Warn("submission_result",
			slog.String("part_number", partNumber),
			slog.String("supplier", supplier),
			slog.String("status", status),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Info("submission_result",
		slog.String("part_number", partNumber),
		slog.String("supplier", supplier),
		slog.String("status", status),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
