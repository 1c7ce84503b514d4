// Package logger is the structured logging surface shared by the lead
// pipeline services. Everything logs as JSON through slog so ingest jobs,
// scoring runs and maintenance sweeps can be correlated by attribute.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the leveled, attribute-carrying logger the services depend on.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
	With(args ...any) Logger
}

type slogLogger struct {
	logger *slog.Logger
}

// New builds a JSON logger writing to stdout at the given level. Level names
// are matched case-insensitively; anything unrecognized falls back to info.
func New(level string) Logger {
	return newAt(os.Stdout, parseLevel(level))
}

// Default returns an info-level logger. Services use it when constructed
// without an explicit logger.
func Default() Logger {
	return New("info")
}

// Discard returns a logger that drops everything. Tests pass it to services
// whose failure paths log warnings on purpose.
func Discard() Logger {
	return newAt(io.Discard, slog.LevelError)
}

func newAt(w io.Writer, level slog.Level) Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &slogLogger{logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
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

func (l *slogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *slogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *slogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}
