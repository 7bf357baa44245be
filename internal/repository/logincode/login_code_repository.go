// File: internal/repository/logincode/login_code_repository.go
package logincode

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kailassh/refine-chat/internal/domain"
)

// LoginCodeRepository stores pending one-time passcode challenges.
type LoginCodeRepository interface {
	Create(ctx context.Context, code *domain.LoginCode) error
	FindActiveByUserID(ctx context.Context, userID string) (*domain.LoginCode, error)
	Update(ctx context.Context, code *domain.LoginCode) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) error
}

type gormLoginCodeRepository struct {
	db *gorm.DB
}

func NewGormLoginCodeRepository(db *gorm.DB) LoginCodeRepository {
	return &gormLoginCodeRepository{db: db}
}

func (r *gormLoginCodeRepository) Create(ctx context.Context, code *domain.LoginCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// FindActiveByUserID returns the newest unused, unexpired challenge for the
// user, or nil when there is none.
func (r *gormLoginCodeRepository) FindActiveByUserID(ctx context.Context, userID string) (*domain.LoginCode, error) {
	var code domain.LoginCode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_used = ? AND expires_at > ?", userID, false, time.Now()).
		Order("created_at DESC").
		First(&code).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

func (r *gormLoginCodeRepository) Update(ctx context.Context, code *domain.LoginCode) error {
	return r.db.WithContext(ctx).Save(code).Error
}

func (r *gormLoginCodeRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.LoginCode{}).Error
}

// DeleteExpired removes stale challenges. Run as a periodic cleanup.
func (r *gormLoginCodeRepository) DeleteExpired(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&domain.LoginCode{}).Error
}
