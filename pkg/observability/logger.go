package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides structured JSON logging using stdlib slog.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a logger writing JSON to output at the given level.
// Level strings are "debug", "info", "warn" and "error"; anything else
// defaults to info.
func NewLogger(level string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return &Logger{logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithField returns a logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With(key, value)}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{logger: l.logger.With(args...)}
}

// WithError returns a logger carrying the error as a field.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) { l.logger.Debug(msg) }

// Info logs an info message.
func (l *Logger) Info(msg string) { l.logger.Info(msg) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string) { l.logger.Warn(msg) }

// Error logs an error message.
func (l *Logger) Error(msg string) { l.logger.Error(msg) }

// NopLogger returns a logger that discards everything. Useful in tests.
func NopLogger() *Logger {
	return NewLogger("error", io.Discard)
}
