// File: internal/repository/user/gorm_user_repository_test.go
package user

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/kailassh/refine-chat/internal/domain"
)

func newTestRepo(t *testing.T) UserRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrating users: %v", err)
	}
	return NewGormUserRepository(db)
}

func TestCreateAssignsIDAndNormalizesEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.User{Email: "  Ada@Example.COM "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Error("Create should assign an ID")
	}
	if created.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalized form", created.Email)
	}
}

func TestCreateRejectsInvalidEmail(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Create(context.Background(), &domain.User{Email: "not-an-address"}); err == nil {
		t.Fatal("Create should reject an address without @")
	}
}

func TestFindByEmailIsCaseInsensitive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, &domain.User{Email: "ada@example.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	found, err := repo.FindByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if found.Email != "ada@example.com" {
		t.Errorf("found email = %q", found.Email)
	}
}

func TestFindMissingUserReturnsSentinel(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.FindByEmail(ctx, "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("FindByEmail error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.FindByID(ctx, "no-such-id"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("FindByID error = %v, want ErrUserNotFound", err)
	}
}

func TestUpdatePersistsChanges(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.User{Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	created.Name = "Ada"
	created.FailedAttempts = 3
	if err := repo.Update(ctx, created); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if reloaded.Name != "Ada" || reloaded.FailedAttempts != 3 {
		t.Errorf("update not persisted: %+v", reloaded)
	}
}
