// File: internal/repository/user/interface.go
package user

import (
	"context"

	"github.com/kailassh/refine-chat/internal/domain"
)

// UserRepository handles identity registry records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}
