// File: internal/services/identity/errors.go
package identity

import (
	"errors"
	"fmt"
)

// ErrorType is the stable machine-readable code carried on every AuthError.
// These strings are part of the API surface and must not change.
type ErrorType string

const (
	ErrTypeSendOtp            ErrorType = "send-otp-error"
	ErrTypeRateLimit          ErrorType = "rate-limit"
	ErrTypeVerifyOtp          ErrorType = "verify-otp-error"
	ErrTypeTokenExpired       ErrorType = "token-expired"
	ErrTypeInvalidToken       ErrorType = "invalid-token"
	ErrTypeSignOut            ErrorType = "sign-out-error"
	ErrTypeUserCreation       ErrorType = "user-creation-error"
	ErrTypeUserNotFound       ErrorType = "user-not-found"
	ErrTypeEmailNotConfirmed  ErrorType = "email-not-confirmed"
	ErrTypeInvalidCredentials ErrorType = "invalid-credentials"
	ErrTypeSignupsDisabled    ErrorType = "signups-disabled"
)

type AuthError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("auth %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("auth %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// AsAuthError unwraps err to the typed auth error, if there is one.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// CodeOf returns the machine-readable code for err. Untyped errors report
// as verify-otp-error so callers always have a code to show.
func CodeOf(err error) ErrorType {
	if authErr, ok := AsAuthError(err); ok {
		return authErr.Type
	}
	return ErrTypeVerifyOtp
}

func NewSendOtpError(operation, msg string, cause error) *AuthError {
	return &AuthError{Type: ErrTypeSendOtp, Operation: operation, Message: msg, Cause: cause}
}

func NewRateLimitError(operation, msg string) *AuthError {
	return &AuthError{Type: ErrTypeRateLimit, Operation: operation, Message: msg}
}

func NewVerifyOtpError(operation, msg string, cause error) *AuthError {
	return &AuthError{Type: ErrTypeVerifyOtp, Operation: operation, Message: msg, Cause: cause}
}

func NewTokenExpiredError(operation string) *AuthError {
	return &AuthError{Type: ErrTypeTokenExpired, Operation: operation, Message: "token has expired"}
}

func NewInvalidTokenError(operation string, cause error) *AuthError {
	return &AuthError{Type: ErrTypeInvalidToken, Operation: operation, Message: "token is invalid", Cause: cause}
}

func NewSignOutError(operation string, cause error) *AuthError {
	return &AuthError{Type: ErrTypeSignOut, Operation: operation, Message: "sign out failed", Cause: cause}
}

func NewUserCreationError(operation string, cause error) *AuthError {
	return &AuthError{Type: ErrTypeUserCreation, Operation: operation, Message: "could not create user", Cause: cause}
}

func NewUserNotFoundError(operation string) *AuthError {
	return &AuthError{Type: ErrTypeUserNotFound, Operation: operation, Message: "user not found"}
}

func NewEmailNotConfirmedError(operation string) *AuthError {
	return &AuthError{Type: ErrTypeEmailNotConfirmed, Operation: operation, Message: "email address is not confirmed"}
}

func NewInvalidCredentialsError(operation, msg string) *AuthError {
	return &AuthError{Type: ErrTypeInvalidCredentials, Operation: operation, Message: msg}
}

func NewSignupsDisabledError(operation string) *AuthError {
	return &AuthError{Type: ErrTypeSignupsDisabled, Operation: operation, Message: "signups are disabled"}
}
