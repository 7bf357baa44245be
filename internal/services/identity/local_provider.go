// File: internal/services/identity/local_provider.go
package identity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailassh/refine-chat/internal/domain"
	"github.com/kailassh/refine-chat/internal/repository/logincode"
	userRepo "github.com/kailassh/refine-chat/internal/repository/user"
)

// LocalProvider implements Provider against the local user registry. Codes
// are stored hashed with a TTL and a bounded attempt count, sessions are
// stateless signed tokens.
type LocalProvider struct {
	users  userRepo.UserRepository
	codes  logincode.LoginCodeRepository
	sender CodeSender
	tokens *tokenManager
	config *Config
	logger Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLocalProvider(
	users userRepo.UserRepository,
	codes logincode.LoginCodeRepository,
	sender CodeSender,
	config *Config,
	logger Logger,
) (*LocalProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("identity config: %w", err)
	}
	if users == nil || codes == nil || sender == nil {
		return nil, errors.New("identity provider dependencies cannot be nil")
	}
	return &LocalProvider{
		users:    users,
		codes:    codes,
		sender:   sender,
		tokens:   newTokenManager(config.TokenSecret, config.TokenTTL),
		config:   config,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

// SendOtp issues a fresh passcode for the address. Unknown addresses are
// registered first when AllowSignups is on, rejected otherwise.
func (p *LocalProvider) SendOtp(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return NewSendOtpError("send_otp", "invalid email address", nil)
	}

	if !p.limiterFor(email).Allow() {
		p.logger.Warn("send throttled", "email", maskEmail(email))
		return NewRateLimitError("send_otp", "too many codes requested, try again later")
	}

	account, err := p.users.FindByEmail(ctx, email)
	if errors.Is(err, userRepo.ErrUserNotFound) {
		if !p.config.AllowSignups {
			return NewSignupsDisabledError("send_otp")
		}
		account, err = p.users.Create(ctx, &domain.User{Email: email})
		if err != nil {
			return NewUserCreationError("send_otp", err)
		}
		p.logger.Info("account registered", "user_id", account.ID)
	} else if err != nil {
		return NewSendOtpError("send_otp", "could not look up account", err)
	}

	if account.IsLocked() {
		return NewRateLimitError("send_otp", "account is temporarily locked")
	}

	code, err := p.issueCode(ctx, account)
	if err != nil {
		return err
	}

	if err := p.sender.SendLoginCode(ctx, email, code); err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return authErr
		}
		return NewSendOtpError("send_otp", "could not deliver code", err)
	}

	p.logger.Info("login code sent", "email", maskEmail(email))
	return nil
}

// VerifyOtp checks a submitted passcode, opening a session on success.
func (p *LocalProvider) VerifyOtp(ctx context.Context, email, code string) (*Session, error) {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)

	account, err := p.users.FindByEmail(ctx, email)
	if errors.Is(err, userRepo.ErrUserNotFound) {
		return nil, NewUserNotFoundError("verify_otp")
	}
	if err != nil {
		return nil, NewVerifyOtpError("verify_otp", "could not look up account", err)
	}

	if account.IsLocked() {
		return nil, NewRateLimitError("verify_otp", "account is temporarily locked")
	}

	challenge, err := p.codes.FindActiveByUserID(ctx, account.ID)
	if err != nil {
		return nil, NewVerifyOtpError("verify_otp", "could not load pending code", err)
	}
	if challenge == nil {
		// Nothing pending: the code expired or was never requested.
		return nil, NewTokenExpiredError("verify_otp")
	}
	if !challenge.CanAttempt() {
		return nil, NewRateLimitError("verify_otp", "too many failed attempts for this code")
	}

	if !challenge.Matches(code) {
		challenge.IncrementAttempts()
		if err := p.codes.Update(ctx, challenge); err != nil {
			p.logger.Error("failed to record code attempt", "user_id", account.ID, "error", err)
		}
		p.registerFailedSignIn(ctx, account)
		return nil, NewInvalidCredentialsError("verify_otp", "incorrect code")
	}

	challenge.MarkAsUsed()
	if err := p.codes.Update(ctx, challenge); err != nil {
		return nil, NewVerifyOtpError("verify_otp", "could not consume code", err)
	}

	account.MarkSignedIn(time.Now())
	if err := p.users.Update(ctx, account); err != nil {
		return nil, NewVerifyOtpError("verify_otp", "could not update account", err)
	}

	token, err := p.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, NewVerifyOtpError("verify_otp", "could not issue session token", err)
	}

	p.logger.Info("user signed in", "user_id", account.ID)
	return &Session{User: account, Token: token}, nil
}

// SignOut invalidates the session. Tokens are stateless, so an expired one
// is already dead and reports success.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	userID, err := p.tokens.Parse(token)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.Type == ErrTypeTokenExpired {
			return nil
		}
		return NewSignOutError("sign_out", err)
	}

	p.logger.Info("user signed out", "user_id", userID)
	return nil
}

// RestoreSession revalidates a stored token and reloads its user.
func (p *LocalProvider) RestoreSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, NewInvalidTokenError("restore_session", nil)
	}

	userID, err := p.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	account, err := p.users.FindByID(ctx, userID)
	if errors.Is(err, userRepo.ErrUserNotFound) {
		return nil, NewUserNotFoundError("restore_session")
	}
	if err != nil {
		return nil, &AuthError{
			Type:      ErrTypeInvalidToken,
			Operation: "restore_session",
			Message:   "could not load session user",
			Cause:     err,
		}
	}

	if !account.EmailConfirmed {
		return nil, NewEmailNotConfirmedError("restore_session")
	}

	return &Session{User: account, Token: token}, nil
}

// issueCode replaces any pending challenge with a fresh one and returns the
// plain-text code for delivery.
func (p *LocalProvider) issueCode(ctx context.Context, account *domain.User) (string, error) {
	if err := p.codes.DeleteByUserID(ctx, account.ID); err != nil {
		p.logger.Warn("failed to clear previous codes", "user_id", account.ID, "error", err)
	}

	code := p.generateCode()
	challenge := &domain.LoginCode{
		UserID:      account.ID,
		ExpiresAt:   time.Now().Add(p.config.CodeTTL),
		MaxAttempts: p.config.MaxVerifyAttempts,
	}
	if err := challenge.SetCode(code); err != nil {
		return "", NewSendOtpError("send_otp", "could not hash code", err)
	}
	if err := p.codes.Create(ctx, challenge); err != nil {
		return "", NewSendOtpError("send_otp", "could not store code", err)
	}
	return code, nil
}

func (p *LocalProvider) generateCode() string {
	span := int(math.Pow10(p.config.CodeLength))
	return fmt.Sprintf("%0*d", p.config.CodeLength, rand.Intn(span))
}

// registerFailedSignIn counts a failure and locks the account once the
// threshold is crossed.
func (p *LocalProvider) registerFailedSignIn(ctx context.Context, account *domain.User) {
	account.FailedAttempts++
	if account.FailedAttempts >= p.config.MaxFailedSignIns {
		until := time.Now().Add(p.config.LockoutDuration)
		account.LockedUntil = &until
		account.FailedAttempts = 0
		p.logger.Warn("account locked after repeated failures", "user_id", account.ID)
	}
	if err := p.users.Update(ctx, account); err != nil {
		p.logger.Error("failed to record sign-in failure", "user_id", account.ID, "error", err)
	}
}

// limiterFor returns the per-address send limiter, creating it on first use.
func (p *LocalProvider) limiterFor(email string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	limiter, ok := p.limiters[email]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(p.config.SendsPerMinute/60.0), p.config.SendBurst)
		p.limiters[email] = limiter
	}
	return limiter
}
