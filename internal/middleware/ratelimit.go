// File: internal/middleware/ratelimit.go
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/kailassh/refine-chat/internal/ratelimit"
	"github.com/kailassh/refine-chat/internal/services"
)

// RateLimit rejects clients that exceed their per-address request budget.
func RateLimit(limiter *ratelimit.ClientLimiter, logger services.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := ratelimit.GetClientIP(r)
			if !limiter.Allow(clientIP) {
				logger.Warn("request rate limited", "remote", clientIP, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
