// File: internal/middleware/constants.go
package middleware

// contextKey keeps middleware context values from colliding with keys set
// by other packages.
type contextKey string

const (
	// UserKey carries the signed-in *domain.User for authenticated routes.
	UserKey contextKey = "user"
)
