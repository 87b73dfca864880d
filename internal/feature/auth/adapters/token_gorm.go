package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
)

// tokenGorm is a GORM implementation of the TokenRepository interface.
type tokenGorm struct {
	db *gorm.DB
}

// Compile-time check to ensure tokenGorm implements TokenRepository.
var _ usecase.TokenRepository = (*tokenGorm)(nil)

// NewTokenGorm creates a new instance of tokenGorm on the given connection.
func NewTokenGorm(db *gorm.DB) *tokenGorm {
	return &tokenGorm{db: db}
}

// Create persists a verification token.
func (r *tokenGorm) Create(ctx context.Context, t *entity.VerificationToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// FindByKindAndToken retrieves a token by kind and opaque value.
// It returns usecase.ErrTokenNotFound when no such token exists.
func (r *tokenGorm) FindByKindAndToken(ctx context.Context, kind entity.TokenKind, token string) (*entity.VerificationToken, error) {
	var t entity.VerificationToken
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND token = ?", kind, token).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

// MarkVerified flips Verified from false to true by token ID.
// The update is conditional on the current value, so of any number of
// concurrent consumers exactly one sees rows affected; the rest get
// usecase.ErrTokenNotFound.
func (r *tokenGorm) MarkVerified(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&entity.VerificationToken{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]interface{}{"verified": true, "updated_at": time.Now()})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrTokenNotFound
	}
	return nil
}
