// File: internal/services/reply/errors.go
package reply

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeProvider   ErrorType = "PROVIDER"
	ErrTypeRateLimit  ErrorType = "RATE_LIMIT"
	ErrTypeValidation ErrorType = "VALIDATION"
)

type ReplyError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *ReplyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("reply %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("reply %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ReplyError) Unwrap() error {
	return e.Cause
}

// retryable reports whether another attempt could help. Config and
// validation problems never resolve on retry.
func (e *ReplyError) retryable() bool {
	return e.Type != ErrTypeConfig && e.Type != ErrTypeValidation
}

func NewConfigError(msg string) *ReplyError {
	return &ReplyError{Type: ErrTypeConfig, Operation: "config", Message: msg}
}

func NewValidationError(operation, msg string) *ReplyError {
	return &ReplyError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewProviderError(operation, msg string, cause error) *ReplyError {
	return &ReplyError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}

func NewNetworkError(operation, msg string, cause error) *ReplyError {
	return &ReplyError{Type: ErrTypeNetwork, Operation: operation, Message: msg, Cause: cause}
}

func NewRateLimitError(operation, msg string, cause error) *ReplyError {
	return &ReplyError{Type: ErrTypeRateLimit, Operation: operation, Message: msg, Cause: cause}
}
