// File: internal/middleware/auth.go
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/kailassh/refine-chat/internal/services"
	"github.com/kailassh/refine-chat/internal/services/auth"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "refine_session"

// RequireAuth admits requests that present the active session's token as a
// bearer header or the session cookie, and puts the signed-in user on the
// request context. Everything else gets a 401.
func RequireAuth(session *auth.Session, logger services.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snapshot := session.State()
			token := bearerToken(r)
			if token == "" {
				if cookie, err := r.Cookie(SessionCookieName); err == nil {
					token = cookie.Value
				}
			}

			active := session.Token()
			if snapshot.Status != auth.StatusAuthenticated || token == "" || active == "" ||
				subtle.ConstantTimeCompare([]byte(token), []byte(active)) != 1 {
				logger.Debug("rejected unauthenticated request", "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, snapshot.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
