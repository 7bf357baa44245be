// File: internal/services/reply/config.go
package reply

import (
	"fmt"
	"time"
)

type Config struct {
	// LLM backend. Key and URL stay empty when the canned engine is used.
	APIKey  string
	BaseURL string
	Model   string

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Model parameters.
	Temperature float32
	TopP        float32
}

func DefaultConfig() *Config {
	return &Config{
		Model:       "gpt-4o-mini",
		Timeout:     2 * time.Minute,
		MaxRetries:  3,
		RetryDelay:  2 * time.Second,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("REPLY_API_KEY is required")
	}
	if c.Model == "" {
		return fmt.Errorf("REPLY_MODEL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	return nil
}
