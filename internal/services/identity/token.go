// File: internal/services/identity/token.go
package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenManager signs and validates session tokens.
type tokenManager struct {
	secret []byte
	ttl    time.Duration
}

func newTokenManager(secret string, ttl time.Duration) *tokenManager {
	return &tokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a session token naming the user.
func (m *tokenManager) Issue(userID, email string) (string, error) {
	if userID == "" {
		return "", errors.New("user ID cannot be empty")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates a token and returns the user ID it names. Failures are
// typed: expired tokens and malformed ones carry different codes.
func (m *tokenManager) Parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", NewTokenExpiredError("parse_token")
		}
		return "", NewInvalidTokenError("parse_token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", NewInvalidTokenError("parse_token", nil)
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", NewInvalidTokenError("parse_token", nil)
	}
	return sub, nil
}
