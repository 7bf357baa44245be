// File: internal/services/reply/retry.go
package reply

import (
	"context"
	"errors"
	"time"
)

// RetryConfig defines simple retry behavior.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		Delay:       500 * time.Millisecond,
	}
}

// RetryWithBackoff runs fn up to MaxAttempts times, waiting Delay between
// attempts. Errors that cannot resolve on retry are returned immediately.
func RetryWithBackoff(ctx context.Context, config *RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var replyErr *ReplyError
		if errors.As(err, &replyErr) && !replyErr.retryable() {
			return err
		}

		if attempt < config.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(config.Delay):
			}
		}
	}

	return lastErr
}
