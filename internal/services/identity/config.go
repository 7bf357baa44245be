// File: internal/services/identity/config.go
package identity

import (
	"fmt"
	"time"
)

type Config struct {
	// Signup policy. When false, sending a code to an unknown address is
	// rejected instead of creating an account.
	AllowSignups bool

	// Passcode parameters.
	CodeLength        int
	CodeTTL           time.Duration
	MaxVerifyAttempts int

	// Account lockout after repeated failed verifications.
	MaxFailedSignIns int
	LockoutDuration  time.Duration

	// Send throttling, per address.
	SendsPerMinute float64
	SendBurst      int

	// Session tokens.
	TokenSecret string
	TokenTTL    time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		AllowSignups:      true,
		CodeLength:        6,
		CodeTTL:           10 * time.Minute,
		MaxVerifyAttempts: 5,
		MaxFailedSignIns:  5,
		LockoutDuration:   15 * time.Minute,
		SendsPerMinute:    1,
		SendBurst:         3,
		TokenTTL:          72 * time.Hour,
	}
}

func (c *Config) Validate() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.TokenSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.CodeLength < 4 || c.CodeLength > 10 {
		return fmt.Errorf("code length must be between 4 and 10")
	}
	if c.CodeTTL <= 0 {
		return fmt.Errorf("code TTL must be positive")
	}
	if c.MaxVerifyAttempts < 1 {
		return fmt.Errorf("max verify attempts must be at least 1")
	}
	if c.SendsPerMinute <= 0 {
		return fmt.Errorf("sends per minute must be positive")
	}
	if c.SendBurst < 1 {
		return fmt.Errorf("send burst must be at least 1")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	return nil
}
