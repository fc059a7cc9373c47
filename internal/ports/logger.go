package ports

import "context"

// Fields is the structured payload attached to a log line.
type Fields = map[string]interface{}

// Logger defines the logging interface injected into every journal component.
// Implementations decide formatting and level filtering.
type Logger interface {
	// Debug logs a message at Debug level.
	Debug(ctx context.Context, msg string, fields ...Fields)
	// Info logs a message at Info level.
	Info(ctx context.Context, msg string, fields ...Fields)
	// Warn logs a message at Warning level.
	Warn(ctx context.Context, msg string, fields ...Fields)
	// Error logs an error message at Error level.
	Error(ctx context.Context, err error, msg string, fields ...Fields)
}

// NopLogger discards everything. Components fall back to it when no logger is configured.
type NopLogger struct{}

func (NopLogger) Debug(context.Context, string, ...Fields)        {}
func (NopLogger) Info(context.Context, string, ...Fields)         {}
func (NopLogger) Warn(context.Context, string, ...Fields)         {}
func (NopLogger) Error(context.Context, error, string, ...Fields) {}
