// File: internal/services/auth/timer.go
package auth

import (
	"sync"
	"time"
)

// resendTimer is the countdown gating resends. At most one run is live:
// Start supersedes any previous run, Stop cancels and zeroes. The zero
// state (nothing counting, Remaining 0) means resending is allowed.
type resendTimer struct {
	interval time.Duration
	onChange func(remaining int)

	mu        sync.Mutex
	remaining int
	stop      chan struct{}
}

func newResendTimer(interval time.Duration, onChange func(remaining int)) *resendTimer {
	return &resendTimer{interval: interval, onChange: onChange}
}

// Start begins a fresh countdown from seconds, cancelling any run already
// in flight.
func (t *resendTimer) Start(seconds int) {
	t.mu.Lock()
	if t.stop != nil {
		close(t.stop)
	}
	t.stop = make(chan struct{})
	t.remaining = seconds
	myStop := t.stop
	t.mu.Unlock()

	go t.run(myStop)
}

// Stop cancels the countdown and zeroes the remaining time.
func (t *resendTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.remaining = 0
}

func (t *resendTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *resendTimer) IsActive() bool {
	return t.Remaining() > 0
}

func (t *resendTimer) run(myStop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-myStop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.stop != myStop {
				// Superseded by a newer Start.
				t.mu.Unlock()
				return
			}
			if t.remaining > 0 {
				t.remaining--
			}
			remaining := t.remaining
			if remaining == 0 {
				t.stop = nil
			}
			t.mu.Unlock()

			if t.onChange != nil {
				t.onChange(remaining)
			}
			if remaining == 0 {
				return
			}
		}
	}
}
