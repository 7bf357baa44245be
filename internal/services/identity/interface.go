// File: internal/services/identity/interface.go
package identity

import (
	"context"

	"github.com/kailassh/refine-chat/internal/domain"
)

// Session is an authenticated user plus the bearer token proving it.
type Session struct {
	User  *domain.User
	Token string
}

// Provider is the identity boundary the auth layer talks to. Every failure
// it returns is an *AuthError carrying a stable code.
type Provider interface {
	// SendOtp issues a one-time passcode to the address, creating the
	// account first when the signup policy allows it.
	SendOtp(ctx context.Context, email string) error

	// VerifyOtp checks a submitted passcode and opens a session.
	VerifyOtp(ctx context.Context, email, code string) (*Session, error)

	// SignOut invalidates the session token.
	SignOut(ctx context.Context, token string) error

	// RestoreSession revalidates a stored token and reloads its user.
	RestoreSession(ctx context.Context, token string) (*Session, error)
}

// CodeSender delivers a passcode to an address. Implementations decide the
// channel.
type CodeSender interface {
	SendLoginCode(ctx context.Context, email, code string) error
}
