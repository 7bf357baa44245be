// File: internal/services/identity/token_test.go
package identity

import (
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m := newTokenManager(strings.Repeat("k", 32), time.Hour)

	token, err := m.Issue("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	userID, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("Parse returned %q, want user-1", userID)
	}
}

func TestTokenExpiry(t *testing.T) {
	m := newTokenManager(strings.Repeat("k", 32), -time.Minute)

	token, err := m.Issue("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = m.Parse(token)
	wantAuthError(t, err, ErrTypeTokenExpired)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := newTokenManager(strings.Repeat("a", 32), time.Hour)
	verifier := newTokenManager(strings.Repeat("b", 32), time.Hour)

	token, err := issuer.Issue("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = verifier.Parse(token)
	wantAuthError(t, err, ErrTypeInvalidToken)
}

func TestIssueRequiresUserID(t *testing.T) {
	m := newTokenManager(strings.Repeat("k", 32), time.Hour)
	if _, err := m.Issue("", "ada@example.com"); err == nil {
		t.Fatal("Issue with empty user ID should fail")
	}
}
