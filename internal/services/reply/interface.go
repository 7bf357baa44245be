// File: internal/services/reply/interface.go
package reply

import "context"

// Generator produces the assistant's reply to one user message.
type Generator interface {
	Generate(ctx context.Context, userText string) (string, error)
	HealthCheck(ctx context.Context) error
}

// Logger interface for the reply service.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}
