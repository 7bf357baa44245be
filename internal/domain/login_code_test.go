// File: internal/domain/login_code_test.go
package domain

import (
	"testing"
	"time"
)

func TestLoginCodeHashAndMatch(t *testing.T) {
	lc := &LoginCode{}
	if err := lc.SetCode("483920"); err != nil {
		t.Fatalf("SetCode: %v", err)
	}
	if lc.CodeHash == "483920" {
		t.Fatal("code stored in plain text")
	}
	if !lc.Matches("483920") {
		t.Error("correct code should match")
	}
	if lc.Matches("000000") {
		t.Error("wrong code should not match")
	}
}

func TestLoginCodeCanAttempt(t *testing.T) {
	future := time.Now().Add(10 * time.Minute)
	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name string
		code LoginCode
		want bool
	}{
		{"fresh", LoginCode{ExpiresAt: future, MaxAttempts: 5}, true},
		{"expired", LoginCode{ExpiresAt: past, MaxAttempts: 5}, false},
		{"used", LoginCode{ExpiresAt: future, MaxAttempts: 5, IsUsed: true}, false},
		{"exhausted", LoginCode{ExpiresAt: future, Attempts: 5, MaxAttempts: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.CanAttempt(); got != tt.want {
				t.Errorf("CanAttempt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoginCodeAttemptLifecycle(t *testing.T) {
	lc := &LoginCode{ExpiresAt: time.Now().Add(time.Minute), MaxAttempts: 2}
	lc.IncrementAttempts()
	if !lc.CanAttempt() {
		t.Fatal("one attempt left, CanAttempt should be true")
	}
	lc.IncrementAttempts()
	if lc.CanAttempt() {
		t.Fatal("attempts exhausted, CanAttempt should be false")
	}
	lc.MarkAsUsed()
	if !lc.IsUsed {
		t.Error("MarkAsUsed should set IsUsed")
	}
}
