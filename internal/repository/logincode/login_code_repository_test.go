// File: internal/repository/logincode/login_code_repository_test.go
package logincode

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/kailassh/refine-chat/internal/domain"
)

func newTestRepo(t *testing.T) LoginCodeRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.LoginCode{}); err != nil {
		t.Fatalf("migrating login_codes: %v", err)
	}
	return NewGormLoginCodeRepository(db)
}

func newCode(t *testing.T, userID string, expiresAt time.Time) *domain.LoginCode {
	t.Helper()
	code := &domain.LoginCode{UserID: userID, ExpiresAt: expiresAt, MaxAttempts: 5}
	if err := code.SetCode("123456"); err != nil {
		t.Fatalf("SetCode: %v", err)
	}
	return code
}

func TestFindActiveReturnsPendingChallenge(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, newCode(t, "u1", time.Now().Add(10*time.Minute))); err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := repo.FindActiveByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("FindActiveByUserID: %v", err)
	}
	if found == nil {
		t.Fatal("expected an active challenge")
	}
	if !found.Matches("123456") {
		t.Error("stored challenge should match the issued code")
	}
}

func TestFindActiveSkipsExpiredAndUsed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	expired := newCode(t, "u1", time.Now().Add(-time.Minute))
	if err := repo.Create(ctx, expired); err != nil {
		t.Fatalf("Create expired: %v", err)
	}

	used := newCode(t, "u2", time.Now().Add(10*time.Minute))
	used.IsUsed = true
	if err := repo.Create(ctx, used); err != nil {
		t.Fatalf("Create used: %v", err)
	}

	for _, userID := range []string{"u1", "u2", "u3"} {
		found, err := repo.FindActiveByUserID(ctx, userID)
		if err != nil {
			t.Fatalf("FindActiveByUserID(%s): %v", userID, err)
		}
		if found != nil {
			t.Errorf("expected no active challenge for %s, got %+v", userID, found)
		}
	}
}

func TestDeleteByUserID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, newCode(t, "u1", time.Now().Add(10*time.Minute))); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.DeleteByUserID(ctx, "u1"); err != nil {
		t.Fatalf("DeleteByUserID: %v", err)
	}

	found, err := repo.FindActiveByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("FindActiveByUserID: %v", err)
	}
	if found != nil {
		t.Error("challenge should be gone after delete")
	}
}

func TestDeleteExpiredKeepsActiveChallenges(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, newCode(t, "stale", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("Create stale: %v", err)
	}
	if err := repo.Create(ctx, newCode(t, "fresh", time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("Create fresh: %v", err)
	}

	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}

	found, err := repo.FindActiveByUserID(ctx, "fresh")
	if err != nil || found == nil {
		t.Fatalf("active challenge should survive cleanup: %v, %v", found, err)
	}
}
