// File: internal/ratelimit/ratelimit_test.go
package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig() *Config {
	return &Config{
		RequestsPerMinute: 60,
		Burst:             3,
		IdleEviction:      time.Minute,
		CleanupPeriod:     time.Hour,
	}
}

func TestAllowExhaustsBurst(t *testing.T) {
	limiter := NewClientLimiter(testConfig())
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		if !limiter.Allow("203.0.113.7") {
			t.Fatalf("request %d within burst should pass", i+1)
		}
	}
	if limiter.Allow("203.0.113.7") {
		t.Error("request beyond burst should be refused")
	}
}

func TestAllowIsPerClient(t *testing.T) {
	limiter := NewClientLimiter(testConfig())
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		limiter.Allow("203.0.113.7")
	}
	if !limiter.Allow("198.51.100.9") {
		t.Error("one client's burst should not starve another")
	}
}

func TestSweepDropsIdleClients(t *testing.T) {
	limiter := NewClientLimiter(testConfig())
	defer limiter.Close()

	limiter.Allow("203.0.113.7")
	limiter.Allow("198.51.100.9")

	limiter.mu.Lock()
	limiter.clients["203.0.113.7"].lastSeen = time.Now().Add(-2 * time.Minute)
	limiter.mu.Unlock()

	limiter.sweep()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, stale := limiter.clients["203.0.113.7"]; stale {
		t.Error("idle client should be swept")
	}
	if _, fresh := limiter.clients["198.51.100.9"]; !fresh {
		t.Error("active client should survive the sweep")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.0.2.1:52814",
			want:       "192.0.2.1",
		},
		{
			name:       "forwarded for wins",
			remoteAddr: "10.0.0.1:1000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "real ip fallback",
			remoteAddr: "10.0.0.1:1000",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
		{
			name:       "garbage forwarded header ignored",
			remoteAddr: "192.0.2.1:52814",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for key, value := range tt.headers {
				r.Header.Set(key, value)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
