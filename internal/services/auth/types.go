// File: internal/services/auth/types.go
package auth

import (
	"strings"

	"github.com/kailassh/refine-chat/internal/domain"
)

// Logger interface for the auth session.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Status is the sign-in phase the session is in.
type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusOtpSent         Status = "otp_sent"
	StatusAuthenticated   Status = "authenticated"
)

// ErrorView is the displayable form of the last failure, kept until it is
// replaced or auto-cleared.
type ErrorView struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Snapshot is a point-in-time copy of the session state. IsActive and
// CanResend are derived: IsActive is true exactly while the countdown is
// above zero, CanResend is its negation.
type Snapshot struct {
	Status        Status       `json:"status"`
	User          *domain.User `json:"user,omitempty"`
	PendingEmail  string       `json:"pending_email,omitempty"`
	Loading       bool         `json:"loading"`
	TimeRemaining int          `json:"time_remaining"`
	IsActive      bool         `json:"is_active"`
	CanResend     bool         `json:"can_resend"`
	Error         *ErrorView   `json:"error,omitempty"`
}

func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
