// File: internal/services/chat/config.go
package chat

import (
	"fmt"
	"time"
)

// Config holds chat store settings.
type Config struct {
	MaxChats        int           // retained conversations, the least recently updated is evicted beyond this
	GenerateTimeout time.Duration // budget for a single reply
	ErrorAutoClear  time.Duration // how long a surfaced error stays visible
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxChats:        50,
		GenerateTimeout: 2 * time.Minute,
		ErrorAutoClear:  5 * time.Second,
	}
}

// Validate checks configuration values.
func (c *Config) Validate() error {
	if c.MaxChats < 1 {
		return fmt.Errorf("CHAT_MAX_CHATS must be at least 1")
	}
	if c.GenerateTimeout <= 0 {
		return fmt.Errorf("CHAT_GENERATE_TIMEOUT must be positive")
	}
	if c.ErrorAutoClear <= 0 {
		return fmt.Errorf("CHAT_ERROR_AUTO_CLEAR must be positive")
	}
	return nil
}
