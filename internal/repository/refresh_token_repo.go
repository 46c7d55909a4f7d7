package repository

import (
	"context"
	"time"

	"liblend/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefreshTokenRepository provides DB access for issued refresh tokens,
// keyed by jti.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Insert persists a freshly issued token record. jti values are random, so
// a collision should never happen; if one does, insert-or-ignore keeps it
// from surfacing as an error.
func (r *RefreshTokenRepository) Insert(ctx context.Context, t *domain.RefreshToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(t).Error
}

func (r *RefreshTokenRepository) FindByJTI(ctx context.Context, jti string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.WithContext(ctx).Where("jti = ?", jti).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Revoke flips the revoked flag. Monotonic: never flipped back. No-op when
// the jti is absent.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, jti string) error {
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error
}

// DeleteExpired garbage-collects rows whose validity window has passed.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&domain.RefreshToken{})
	return tx.RowsAffected, tx.Error
}
