// File: internal/domain/login_code.go
package domain

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// LoginCode is a pending one-time passcode challenge for a user. Only the
// bcrypt hash of the code is stored.
type LoginCode struct {
	ID          uint      `gorm:"primarykey"`
	UserID      string    `gorm:"size:36;not null;index"`
	CodeHash    string    `gorm:"size:60;not null"`
	ExpiresAt   time.Time `gorm:"not null"`
	Attempts    int       `gorm:"default:0"`
	MaxAttempts int       `gorm:"default:5"`
	IsUsed      bool      `gorm:"default:false"`
	CreatedAt   time.Time
}

// SetCode hashes the plain-text code before it is stored.
func (lc *LoginCode) SetCode(code string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	lc.CodeHash = string(hashed)
	return nil
}

// Matches compares a submitted code against the stored hash.
func (lc *LoginCode) Matches(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(lc.CodeHash), []byte(code)) == nil
}

func (lc *LoginCode) IsExpired() bool {
	return time.Now().After(lc.ExpiresAt)
}

func (lc *LoginCode) IsMaxAttemptsReached() bool {
	return lc.Attempts >= lc.MaxAttempts
}

// CanAttempt reports whether another verify attempt is allowed.
func (lc *LoginCode) CanAttempt() bool {
	return !lc.IsUsed && !lc.IsExpired() && !lc.IsMaxAttemptsReached()
}

func (lc *LoginCode) IncrementAttempts() {
	lc.Attempts++
}

func (lc *LoginCode) MarkAsUsed() {
	lc.IsUsed = true
}
