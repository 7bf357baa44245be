// File: internal/services/chat/errors.go
package chat

import (
	"errors"
	"fmt"
)

// ErrorType categorizes chat store failures.
type ErrorType string

const (
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
	ErrTypeImport      ErrorType = "INVALID_IMPORT_FORMAT"
	ErrTypeGeneration  ErrorType = "GENERATION"
	ErrTypePersistence ErrorType = "PERSISTENCE"
)

// ChatError is a structured error for chat store operations.
type ChatError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("chat %s error in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("chat %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates an error for invalid input or wiring.
func NewValidationError(operation, message string) *ChatError {
	return &ChatError{
		Type:      ErrTypeValidation,
		Operation: operation,
		Message:   message,
	}
}

// NewNotFoundError creates an error for a missing chat or message.
func NewNotFoundError(operation, target string) *ChatError {
	return &ChatError{
		Type:      ErrTypeNotFound,
		Operation: operation,
		Message:   fmt.Sprintf("%s was not found", target),
	}
}

// NewImportError creates an error for a malformed transcript payload.
func NewImportError(cause error) *ChatError {
	return &ChatError{
		Type:      ErrTypeImport,
		Operation: "import_all",
		Message:   "import payload is not a valid transcript",
		Cause:     cause,
	}
}

// NewGenerationError creates an error for a failed reply generation.
func NewGenerationError(operation string, cause error) *ChatError {
	return &ChatError{
		Type:      ErrTypeGeneration,
		Operation: operation,
		Message:   "reply generation failed",
		Cause:     cause,
	}
}

// NewPersistenceError creates an error for serialization failures.
func NewPersistenceError(operation string, cause error) *ChatError {
	return &ChatError{
		Type:      ErrTypePersistence,
		Operation: operation,
		Message:   "could not serialize chats",
		Cause:     cause,
	}
}

// IsNotFound reports whether err is a chat NOT_FOUND error.
func IsNotFound(err error) bool {
	var chatErr *ChatError
	return errors.As(err, &chatErr) && chatErr.Type == ErrTypeNotFound
}

// IsInvalidImport reports whether err came from a malformed import payload.
func IsInvalidImport(err error) bool {
	var chatErr *ChatError
	return errors.As(err, &chatErr) && chatErr.Type == ErrTypeImport
}
