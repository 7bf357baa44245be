// File: internal/services/auth/config.go
package auth

import (
	"fmt"
	"time"
)

type Config struct {
	// ResendWaitSeconds is the countdown length after a code goes out.
	// Resending is blocked until it reaches zero.
	ResendWaitSeconds int

	// TickInterval is the countdown cadence. One second in production,
	// shortened in tests.
	TickInterval time.Duration

	// ErrorAutoClear is how long a failure stays visible before it is
	// wiped from the state.
	ErrorAutoClear time.Duration

	// ProviderTimeout bounds each identity provider call.
	ProviderTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		ResendWaitSeconds: 120,
		TickInterval:      time.Second,
		ErrorAutoClear:    5 * time.Second,
		ProviderTimeout:   15 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.ResendWaitSeconds < 1 {
		return fmt.Errorf("resend wait must be at least 1 second")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.ErrorAutoClear <= 0 {
		return fmt.Errorf("error auto-clear must be positive")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive")
	}
	return nil
}
