// File: internal/services/auth/session_test.go
package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kailassh/refine-chat/internal/domain"
	"github.com/kailassh/refine-chat/internal/repository/kv"
	"github.com/kailassh/refine-chat/internal/services"
	"github.com/kailassh/refine-chat/internal/services/identity"
)

type fakeProvider struct {
	mu           sync.Mutex
	sendCalls    int
	verifyCalls  int
	signOutCalls int
	restoreCalls int

	sendFn    func(ctx context.Context, email string) error
	verifyFn  func(ctx context.Context, email, code string) (*identity.Session, error)
	signOutFn func(ctx context.Context, token string) error
	restoreFn func(ctx context.Context, token string) (*identity.Session, error)
}

func testUser() *domain.User {
	return &domain.User{ID: "user-1", Email: "ada@example.com", EmailConfirmed: true}
}

func (f *fakeProvider) SendOtp(ctx context.Context, email string) error {
	f.mu.Lock()
	f.sendCalls++
	fn := f.sendFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, email)
	}
	return nil
}

func (f *fakeProvider) VerifyOtp(ctx context.Context, email, code string) (*identity.Session, error) {
	f.mu.Lock()
	f.verifyCalls++
	fn := f.verifyFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, email, code)
	}
	return &identity.Session{User: testUser(), Token: "token-1"}, nil
}

func (f *fakeProvider) SignOut(ctx context.Context, token string) error {
	f.mu.Lock()
	f.signOutCalls++
	fn := f.signOutFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, token)
	}
	return nil
}

func (f *fakeProvider) RestoreSession(ctx context.Context, token string) (*identity.Session, error) {
	f.mu.Lock()
	f.restoreCalls++
	fn := f.restoreFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, token)
	}
	return &identity.Session{User: testUser(), Token: token}, nil
}

func (f *fakeProvider) calls() (send, verify, signOut, restore int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls, f.verifyCalls, f.signOutCalls, f.restoreCalls
}

// testConfig freezes the countdown so states can be asserted exactly.
// Tests that want ticking shorten TickInterval themselves.
func testSessionConfig() *Config {
	cfg := DefaultConfig()
	cfg.TickInterval = time.Hour
	cfg.ErrorAutoClear = 40 * time.Millisecond
	return cfg
}

func newTestSession(t *testing.T, provider identity.Provider, cfg *Config) (*Session, kv.Store) {
	t.Helper()
	store := kv.NewMemoryStore()
	session, err := NewSession(provider, store, cfg, &services.NoOpLogger{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return session, store
}

func TestSendOtpOpensWindowAtFullLength(t *testing.T) {
	provider := &fakeProvider{}
	session, _ := newTestSession(t, provider, testSessionConfig())

	if err := session.SendOtp(context.Background(), " Ada@Example.com "); err != nil {
		t.Fatalf("SendOtp: %v", err)
	}

	snap := session.State()
	if snap.Status != StatusOtpSent {
		t.Errorf("status = %s, want otp_sent", snap.Status)
	}
	if snap.PendingEmail != "ada@example.com" {
		t.Errorf("pending email = %q, want normalized address", snap.PendingEmail)
	}
	if snap.TimeRemaining != 120 {
		t.Errorf("time remaining = %d, want exactly 120", snap.TimeRemaining)
	}
	if !snap.IsActive || snap.CanResend {
		t.Errorf("window should be active and resend blocked: %+v", snap)
	}
	if snap.Error != nil {
		t.Errorf("no error expected, got %+v", snap.Error)
	}
}

func TestSendOtpEmptyEmailIsNoop(t *testing.T) {
	provider := &fakeProvider{}
	session, _ := newTestSession(t, provider, testSessionConfig())

	if err := session.SendOtp(context.Background(), "   "); err != nil {
		t.Fatalf("SendOtp: %v", err)
	}

	if send, _, _, _ := provider.calls(); send != 0 {
		t.Errorf("provider called %d times for empty address, want 0", send)
	}
	if snap := session.State(); snap.Status != StatusUnauthenticated {
		t.Errorf("status = %s, want unauthenticated", snap.Status)
	}
}

func TestSendOtpFailureSurfacesTypedError(t *testing.T) {
	provider := &fakeProvider{
		sendFn: func(ctx context.Context, email string) error {
			return identity.NewRateLimitError("send_otp", "slow down")
		},
	}
	session, _ := newTestSession(t, provider, testSessionConfig())

	if err := session.SendOtp(context.Background(), "ada@example.com"); err == nil {
		t.Fatal("SendOtp should surface the provider failure")
	}

	snap := session.State()
	if snap.Status != StatusUnauthenticated {
		t.Errorf("status = %s, want unauthenticated after failed send", snap.Status)
	}
	if snap.Error == nil || snap.Error.Code != "rate-limit" {
		t.Errorf("error = %+v, want rate-limit code", snap.Error)
	}
	if snap.IsActive {
		t.Error("countdown must not start on a failed send")
	}
}

func TestErrorAutoClears(t *testing.T) {
	session, _ := newTestSession(t, &fakeProvider{}, testSessionConfig())

	if err := session.VerifyOtp(context.Background(), "123456"); !errors.Is(err, ErrMissingPendingEmail) {
		t.Fatalf("err = %v, want ErrMissingPendingEmail", err)
	}
	if session.State().Error == nil {
		t.Fatal("error should be visible right after the failure")
	}

	waitFor(t, time.Second, func() bool { return session.State().Error == nil },
		"error was never auto-cleared")
}

func TestNewerErrorOutlivesOlderClear(t *testing.T) {
	cfg := testSessionConfig()
	cfg.ErrorAutoClear = 60 * time.Millisecond
	session, _ := newTestSession(t, &fakeProvider{}, cfg)
	ctx := context.Background()

	session.VerifyOtp(ctx, "111111")
	time.Sleep(30 * time.Millisecond)
	session.VerifyOtp(ctx, "222222")

	// The first failure's clear fires around t=60ms and must not wipe the
	// second failure, which stays until about t=90ms.
	time.Sleep(40 * time.Millisecond)
	if session.State().Error == nil {
		t.Fatal("second error was cleared by the first error's timer")
	}

	waitFor(t, time.Second, func() bool { return session.State().Error == nil },
		"second error was never cleared")
}

func TestVerifyWithoutPendingEmailSkipsProvider(t *testing.T) {
	provider := &fakeProvider{}
	session, _ := newTestSession(t, provider, testSessionConfig())

	err := session.VerifyOtp(context.Background(), "123456")
	if !errors.Is(err, ErrMissingPendingEmail) {
		t.Fatalf("err = %v, want ErrMissingPendingEmail", err)
	}
	if _, verify, _, _ := provider.calls(); verify != 0 {
		t.Errorf("provider verify called %d times, want 0", verify)
	}
	if snap := session.State(); snap.Error == nil || snap.Error.Code != CodeMissingPendingEmail {
		t.Errorf("error = %+v, want %s code", snap.Error, CodeMissingPendingEmail)
	}
}

func TestVerifyOtpAuthenticates(t *testing.T) {
	provider := &fakeProvider{}
	session, store := newTestSession(t, provider, testSessionConfig())
	ctx := context.Background()

	if err := session.SendOtp(ctx, "ada@example.com"); err != nil {
		t.Fatalf("SendOtp: %v", err)
	}
	if err := session.VerifyOtp(ctx, "123456"); err != nil {
		t.Fatalf("VerifyOtp: %v", err)
	}

	snap := session.State()
	if snap.Status != StatusAuthenticated {
		t.Errorf("status = %s, want authenticated", snap.Status)
	}
	if snap.User == nil || snap.User.ID != "user-1" {
		t.Errorf("user = %+v, want user-1", snap.User)
	}
	if snap.PendingEmail != "" {
		t.Errorf("pending email should clear, got %q", snap.PendingEmail)
	}
	if snap.TimeRemaining != 0 || snap.IsActive {
		t.Errorf("countdown should stop on sign-in: %+v", snap)
	}
	if session.Token() != "token-1" {
		t.Errorf("Token() = %q, want token-1", session.Token())
	}

	stored, err := store.Get(ctx, "refine.session")
	if err != nil || stored != "token-1" {
		t.Errorf("persisted token = %q, %v, want token-1", stored, err)
	}
}

func TestVerifyFailureKeepsCountdownRunning(t *testing.T) {
	provider := &fakeProvider{
		verifyFn: func(ctx context.Context, email, code string) (*identity.Session, error) {
			return nil, identity.NewInvalidCredentialsError("verify_otp", "incorrect code")
		},
	}
	session, _ := newTestSession(t, provider, testSessionConfig())
	ctx := context.Background()

	if err := session.SendOtp(ctx, "ada@example.com"); err != nil {
		t.Fatalf("SendOtp: %v", err)
	}
	if err := session.VerifyOtp(ctx, "000000"); err == nil {
		t.Fatal("VerifyOtp should fail")
	}

	snap := session.State()
	if snap.Status != StatusOtpSent {
		t.Errorf("status = %s, want otp_sent after a wrong code", snap.Status)
	}
	if snap.TimeRemaining != 120 {
		t.Errorf("countdown = %d, should keep running", snap.TimeRemaining)
	}
	if snap.Error == nil || snap.Error.Code != "invalid-credentials" {
		t.Errorf("error = %+v, want invalid-credentials", snap.Error)
	}
}

func TestResendBlockedWhileWindowCounts(t *testing.T) {
	provider := &fakeProvider{}
	session, _ := newTestSession(t, provider, testSessionConfig())
	ctx := context.Background()

	if err := session.SendOtp(ctx, "ada@example.com"); err != nil {
		t.Fatalf("SendOtp: %v", err)
	}
	if err := session.ResendOtp(ctx); err != nil {
		t.Fatalf("ResendOtp: %v", err)
	}

	if send, _, _, _ := provider.calls(); send != 1 {
		t.Errorf("provider send calls = %d, want 1 (resend ignored)", send)
	}
}

func TestResendWithoutPendingEmail(t *testing.T) {
	provider := &fakeProvider{}
	session, _ := newTestSession(t, provider, testSessionConfig())

	if err := session.ResendOtp(context.Background()); !errors.Is(err, ErrMissingPendingEmail) {
		t.Fatalf("err = %v, want ErrMissingPendingEmail", err)
	}
	if send, _, _, _ := provider.calls(); send != 0 {
		t.Errorf("provider send calls = %d, want 0", send)
	}
}

func TestResendAfterWindowRestartsCountdown(t *testing.T) {
	cfg := testSessionConfig()
	cfg.ResendWaitSeconds = 3
	cfg.TickInterval = 5 * time.Millisecond
	provider := &fakeProvider{}
	session, _ := newTestSession(t, provider, cfg)
	ctx := context.Background()

	if err := session.SendOtp(ctx, "ada@example.com"); err != nil {
		t.Fatalf("SendOtp: %v", err)
	}
	waitFor(t, time.Second, func() bool { return session.State().CanResend },
		"window never opened")

	if err := session.ResendOtp(ctx); err != nil {
		t.Fatalf("ResendOtp: %v", err)
	}
	if send, _, _, _ := provider.calls(); send != 2 {
		t.Errorf("provider send calls = %d, want 2", send)
	}
	if snap := session.State(); !snap.IsActive {
		t.Error("countdown should restart after a resend")
	}
}

func TestCountdownNeverGoesNegative(t *testing.T) {
	cfg := testSessionConfig()
	cfg.ResendWaitSeconds = 3
	cfg.TickInterval = time.Millisecond
	session, _ := newTestSession(t, &fakeProvider{}, cfg)

	if err := session.SendOtp(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("SendOtp: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		snap := session.State()
		if snap.TimeRemaining < 0 {
			t.Fatalf("time remaining went negative: %d", snap.TimeRemaining)
		}
		if !snap.IsActive && snap.TimeRemaining == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("countdown never finished")
}

func TestCloseStopsCountdown(t *testing.T) {
	session, _ := newTestSession(t, &fakeProvider{}, testSessionConfig())

	if err := session.SendOtp(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("SendOtp: %v", err)
	}
	session.Close()

	snap := session.State()
	if snap.TimeRemaining != 0 || snap.IsActive {
		t.Errorf("countdown should be stopped after Close: %+v", snap)
	}
	if snap.Status != StatusOtpSent {
		t.Errorf("Close must not change the sign-in step, got %s", snap.Status)
	}
}

func TestGoBackToEmailResetsFlow(t *testing.T) {
	provider := &fakeProvider{}
	session, _ := newTestSession(t, provider, testSessionConfig())
	ctx := context.Background()

	if err := session.SendOtp(ctx, "ada@example.com"); err != nil {
		t.Fatalf("SendOtp: %v", err)
	}
	session.GoBackToEmail()

	snap := session.State()
	if snap.Status != StatusUnauthenticated || snap.PendingEmail != "" {
		t.Errorf("state after GoBackToEmail = %+v", snap)
	}
	if snap.TimeRemaining != 0 || snap.IsActive {
		t.Error("countdown should reset")
	}

	if err := session.VerifyOtp(ctx, "123456"); !errors.Is(err, ErrMissingPendingEmail) {
		t.Errorf("verify after going back = %v, want ErrMissingPendingEmail", err)
	}
}

func TestSignOutClearsLocalStateEvenWhenProviderFails(t *testing.T) {
	provider := &fakeProvider{
		signOutFn: func(ctx context.Context, token string) error {
			return identity.NewSignOutError("sign_out", errors.New("backend down"))
		},
	}
	session, store := newTestSession(t, provider, testSessionConfig())
	ctx := context.Background()

	if err := session.SendOtp(ctx, "ada@example.com"); err != nil {
		t.Fatalf("SendOtp: %v", err)
	}
	if err := session.VerifyOtp(ctx, "123456"); err != nil {
		t.Fatalf("VerifyOtp: %v", err)
	}

	if err := session.SignOut(ctx); err == nil {
		t.Fatal("SignOut should surface the provider failure")
	}

	snap := session.State()
	if snap.Status != StatusUnauthenticated || snap.User != nil {
		t.Errorf("local state must clear regardless: %+v", snap)
	}
	if session.Token() != "" {
		t.Error("token should be cleared")
	}
	if _, err := store.Get(ctx, "refine.session"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("stored session should be removed, got %v", err)
	}
	if snap.Error == nil || snap.Error.Code != "sign-out-error" {
		t.Errorf("error = %+v, want sign-out-error", snap.Error)
	}
}

func TestRestoreSessionFromStore(t *testing.T) {
	provider := &fakeProvider{}
	session, store := newTestSession(t, provider, testSessionConfig())
	ctx := context.Background()

	if err := store.Set(ctx, "refine.session", "stored-token"); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	session.Restore(ctx)

	snap := session.State()
	if snap.Status != StatusAuthenticated || snap.User == nil {
		t.Fatalf("state after restore = %+v", snap)
	}
	if session.Token() != "stored-token" {
		t.Errorf("Token() = %q, want stored-token", session.Token())
	}
}

func TestRestoreDropsRejectedToken(t *testing.T) {
	provider := &fakeProvider{
		restoreFn: func(ctx context.Context, token string) (*identity.Session, error) {
			return nil, identity.NewTokenExpiredError("restore_session")
		},
	}
	session, store := newTestSession(t, provider, testSessionConfig())
	ctx := context.Background()

	if err := store.Set(ctx, "refine.session", "stale-token"); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	session.Restore(ctx)

	if snap := session.State(); snap.Status != StatusUnauthenticated {
		t.Errorf("status = %s, want unauthenticated", snap.Status)
	}
	if _, err := store.Get(ctx, "refine.session"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("stale token should be dropped, got %v", err)
	}
}

func TestRestoreWithNothingStored(t *testing.T) {
	provider := &fakeProvider{}
	session, _ := newTestSession(t, provider, testSessionConfig())

	session.Restore(context.Background())

	if _, _, _, restore := provider.calls(); restore != 0 {
		t.Errorf("provider restore calls = %d, want 0", restore)
	}
	if snap := session.State(); snap.Status != StatusUnauthenticated {
		t.Errorf("status = %s, want unauthenticated", snap.Status)
	}
}
