// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds per-client request limiting settings.
type Config struct {
	RequestsPerMinute int           // steady allowance per client
	Burst             int           // short bursts tolerated above the steady rate
	IdleEviction      time.Duration // forget clients quiet for this long
	CleanupPeriod     time.Duration // how often idle clients are swept
}

// DefaultAPIConfig suits the general JSON API.
func DefaultAPIConfig() *Config {
	return &Config{
		RequestsPerMinute: 120,
		Burst:             40,
		IdleEviction:      10 * time.Minute,
		CleanupPeriod:     5 * time.Minute,
	}
}

// AuthConfig is tighter. Login endpoints are the abuse magnet.
func AuthConfig() *Config {
	return &Config{
		RequestsPerMinute: 10,
		Burst:             5,
		IdleEviction:      30 * time.Minute,
		CleanupPeriod:     10 * time.Minute,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter hands every client its own token bucket.
type ClientLimiter struct {
	config  *Config
	mu      sync.Mutex
	clients map[string]*client
	stopCh  chan struct{}
}

// NewClientLimiter creates a limiter and starts its sweep goroutine.
func NewClientLimiter(config *Config) *ClientLimiter {
	l := &ClientLimiter{
		config:  config,
		clients: make(map[string]*client),
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether identifier may make another request now.
func (l *ClientLimiter) Allow(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.clients[identifier]
	if !ok {
		perSecond := rate.Limit(float64(l.config.RequestsPerMinute) / 60.0)
		entry = &client{limiter: rate.NewLimiter(perSecond, l.config.Burst)}
		l.clients[identifier] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// Close stops the sweep goroutine.
func (l *ClientLimiter) Close() {
	close(l.stopCh)
}

func (l *ClientLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopCh:
			return
		}
	}
}

func (l *ClientLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.config.IdleEviction)
	for identifier, entry := range l.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(l.clients, identifier)
		}
	}
}

// GetClientIP extracts the caller's address, honoring proxy headers.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if net.ParseIP(realIP) != nil {
			return realIP
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
