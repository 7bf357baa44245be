// File: internal/middleware/metrics.go
package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kailassh/refine-chat/internal/metrics"
)

// Metrics records request counts and latency. The route template is used
// as the label so path parameters do not blow up cardinality.
func Metrics(recorder metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if template, err := current.GetPathTemplate(); err == nil {
					route = template
				}
			}
			recorder.RecordRequest(r.Method, route, wrapped.status, time.Since(start))
		})
	}
}
