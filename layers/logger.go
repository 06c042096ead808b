package layers

import (
	"context"
	"log/slog"
)

// Logger provides a minimal interface for observability and debugging.
// It is designed to be optional, with zero overhead when disabled.
// Users can implement this interface to integrate their preferred logging
// library; SlogLogger adapts the standard library's slog.
type Logger interface {
	// Debug logs debug-level information for detailed troubleshooting.
	Debug(ctx context.Context, msg string, keyvals ...any)

	// Info logs informational messages about normal operations.
	Info(ctx context.Context, msg string, keyvals ...any)

	// Error logs error-level information about failures.
	Error(ctx context.Context, msg string, keyvals ...any)
}

// NoOpLogger is a logger that does nothing.
// It can be used as a default when no logging is desired.
type NoOpLogger struct{}

// Debug implements Logger.
func (NoOpLogger) Debug(_ context.Context, _ string, _ ...any) {}

// Info implements Logger.
func (NoOpLogger) Info(_ context.Context, _ string, _ ...any) {}

// Error implements Logger.
func (NoOpLogger) Error(_ context.Context, _ string, _ ...any) {}

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	L *slog.Logger
}

// Debug implements Logger.
func (s SlogLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	s.L.DebugContext(ctx, msg, keyvals...)
}

// Info implements Logger.
func (s SlogLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	s.L.InfoContext(ctx, msg, keyvals...)
}

// Error implements Logger.
func (s SlogLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	s.L.ErrorContext(ctx, msg, keyvals...)
}
