// File: internal/domain/user.go
package domain

import (
	"errors"
	"strings"
	"time"
)

// User is an account in the local identity registry. The same record is
// returned to the auth layer once a sign-in completes.
type User struct {
	ID             string     `json:"id" gorm:"primarykey;size:36"`
	Email          string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	EmailConfirmed bool       `json:"email_confirmed"`
	Name           string     `json:"name,omitempty" gorm:"size:255"`
	AvatarURL      string     `json:"avatar_url,omitempty" gorm:"size:512"`
	FailedAttempts int        `json:"-" gorm:"default:0"`
	LockedUntil    *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastSignInAt   *time.Time `json:"last_sign_in_at,omitempty"`
}

// NormalizeEmail lowercases and trims an address so registry lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) IsValid() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("email must contain @")
	}
	return nil
}

// IsLocked reports whether the account is under a temporary lockout.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// MarkSignedIn records a successful sign-in and clears any lockout state.
func (u *User) MarkSignedIn(at time.Time) {
	t := at
	u.LastSignInAt = &t
	u.EmailConfirmed = true
	u.FailedAttempts = 0
	u.LockedUntil = nil
}
