// File: internal/services/auth/session.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kailassh/refine-chat/internal/domain"
	"github.com/kailassh/refine-chat/internal/repository/kv"
	"github.com/kailassh/refine-chat/internal/services/identity"
)

// sessionStoreKey is where the bearer token survives restarts.
const sessionStoreKey = "refine.session"

// Session is the sign-in state machine: email in, one-time code out,
// authenticated user at the end. All methods are safe for concurrent use;
// reads go through State.
type Session struct {
	provider identity.Provider
	store    kv.Store
	config   *Config
	logger   Logger
	timer    *resendTimer

	// mu guards everything below.
	mu           sync.Mutex
	status       Status
	user         *domain.User
	token        string
	pendingEmail string
	loading      bool
	lastError    *ErrorView
	errorGen     uint64
}

func NewSession(provider identity.Provider, store kv.Store, config *Config, logger Logger) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("auth config: %w", err)
	}
	if provider == nil || store == nil {
		return nil, errors.New("auth session dependencies cannot be nil")
	}

	s := &Session{
		provider: provider,
		store:    store,
		config:   config,
		logger:   logger,
		status:   StatusUnauthenticated,
	}
	s.timer = newResendTimer(config.TickInterval, func(remaining int) {
		if remaining == 0 {
			logger.Debug("resend window open")
		}
	})
	return s, nil
}

// SendOtp requests a passcode for the address and opens the resend window.
// An empty address is a no-op.
func (s *Session) SendOtp(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil
	}

	s.mu.Lock()
	if s.status == StatusAuthenticated {
		s.mu.Unlock()
		s.logger.Debug("send ignored, already signed in")
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	err := s.callProvider(ctx, func(ctx context.Context) error {
		return s.provider.SendOtp(ctx, email)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.failLocked(err)
		return err
	}

	s.status = StatusOtpSent
	s.pendingEmail = email
	s.clearErrorLocked()
	s.timer.Start(s.config.ResendWaitSeconds)
	s.logger.Info("code sent", "email", maskEmail(email), "resend_wait_s", s.config.ResendWaitSeconds)
	return nil
}

// VerifyOtp submits the passcode for the pending address. Without a
// pending address it fails locally, never reaching the provider.
func (s *Session) VerifyOtp(ctx context.Context, code string) error {
	s.mu.Lock()
	if s.pendingEmail == "" {
		s.failLocked(ErrMissingPendingEmail)
		s.mu.Unlock()
		return ErrMissingPendingEmail
	}
	email := s.pendingEmail
	s.loading = true
	s.mu.Unlock()

	var session *identity.Session
	err := s.callProvider(ctx, func(ctx context.Context) error {
		var verifyErr error
		session, verifyErr = s.provider.VerifyOtp(ctx, email, code)
		return verifyErr
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.failLocked(err)
		return err
	}

	s.status = StatusAuthenticated
	s.user = session.User
	s.token = session.Token
	s.pendingEmail = ""
	s.timer.Stop()
	s.clearErrorLocked()
	s.persistTokenLocked(ctx)
	s.logger.Info("signed in", "user_id", session.User.ID)
	return nil
}

// ResendOtp re-issues the code for the pending address once the countdown
// has finished. While it is still counting, the call is ignored.
func (s *Session) ResendOtp(ctx context.Context) error {
	s.mu.Lock()
	if s.pendingEmail == "" {
		s.failLocked(ErrMissingPendingEmail)
		s.mu.Unlock()
		return ErrMissingPendingEmail
	}
	if s.timer.IsActive() {
		s.mu.Unlock()
		s.logger.Debug("resend ignored, window still counting down")
		return nil
	}
	email := s.pendingEmail
	s.loading = true
	s.mu.Unlock()

	err := s.callProvider(ctx, func(ctx context.Context) error {
		return s.provider.SendOtp(ctx, email)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.failLocked(err)
		return err
	}

	s.clearErrorLocked()
	s.timer.Start(s.config.ResendWaitSeconds)
	s.logger.Info("code resent", "email", maskEmail(email))
	return nil
}

// GoBackToEmail abandons the code entry step and returns to the email
// form. Outside the otp_sent phase it does nothing.
func (s *Session) GoBackToEmail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusOtpSent {
		return
	}
	s.status = StatusUnauthenticated
	s.pendingEmail = ""
	s.loading = false
	s.timer.Stop()
	s.clearErrorLocked()
}

// SignOut ends the session. Local state is cleared even when the provider
// reports a failure; the failure is still surfaced.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.loading = true
	s.mu.Unlock()

	err := s.callProvider(ctx, func(ctx context.Context) error {
		return s.provider.SignOut(ctx, token)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.status = StatusUnauthenticated
	s.user = nil
	s.token = ""
	s.pendingEmail = ""
	s.timer.Stop()
	s.removeTokenLocked(ctx)

	if err != nil {
		s.failLocked(err)
		s.logger.Warn("provider sign-out failed, local session cleared anyway", "error", err)
		return err
	}
	s.clearErrorLocked()
	s.logger.Info("signed out")
	return nil
}

// Restore picks up a persisted session at startup. Any problem leaves the
// session signed out and drops the stored token; it never fails the boot.
func (s *Session) Restore(ctx context.Context) {
	token, err := s.store.Get(ctx, sessionStoreKey)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("could not read stored session", "error", err)
		return
	}

	var session *identity.Session
	err = s.callProvider(ctx, func(ctx context.Context) error {
		var restoreErr error
		session, restoreErr = s.provider.RestoreSession(ctx, token)
		return restoreErr
	})
	if err != nil {
		s.logger.Info("stored session rejected", "code", identity.CodeOf(err))
		if delErr := s.store.Delete(ctx, sessionStoreKey); delErr != nil {
			s.logger.Warn("could not drop stale session", "error", delErr)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusAuthenticated
	s.user = session.User
	s.token = session.Token
	s.logger.Info("session restored", "user_id", session.User.ID)
}

// State returns a copy of the current state.
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.timer.Remaining()
	snap := Snapshot{
		Status:        s.status,
		PendingEmail:  s.pendingEmail,
		Loading:       s.loading,
		TimeRemaining: remaining,
		IsActive:      remaining > 0,
		CanResend:     remaining == 0,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.lastError != nil {
		e := *s.lastError
		snap.Error = &e
	}
	return snap
}

// Token returns the bearer token of the live session, empty when signed
// out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Close stops the resend countdown so no tick outlives the owner. The
// session itself stays usable; a later SendOtp starts a fresh countdown.
func (s *Session) Close() {
	s.timer.Stop()
}

// callProvider bounds a provider call without holding the state lock.
func (s *Session) callProvider(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.config.ProviderTimeout)
	defer cancel()
	return fn(callCtx)
}

// failLocked records a failure and schedules its auto-clear. Caller holds
// the lock.
func (s *Session) failLocked(err error) {
	s.lastError = errorView(err)
	s.errorGen++
	gen := s.errorGen

	clearAfter := s.config.ErrorAutoClear
	go func() {
		time.Sleep(clearAfter)
		s.mu.Lock()
		if s.errorGen == gen {
			s.lastError = nil
		}
		s.mu.Unlock()
	}()
}

func (s *Session) clearErrorLocked() {
	s.lastError = nil
	s.errorGen++
}

func (s *Session) persistTokenLocked(ctx context.Context) {
	if err := s.store.Set(ctx, sessionStoreKey, s.token); err != nil {
		s.logger.Warn("could not persist session", "error", err)
	}
}

func (s *Session) removeTokenLocked(ctx context.Context) {
	if err := s.store.Delete(ctx, sessionStoreKey); err != nil {
		s.logger.Warn("could not remove stored session", "error", err)
	}
}
