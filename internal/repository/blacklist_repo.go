package repository

import (
	"context"
	"time"

	"liblend/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlacklistRepository is the persisted set of revoked access-token jti
// values, each kept until its original expiry passes.
type BlacklistRepository struct {
	db *gorm.DB
}

func NewBlacklistRepository(db *gorm.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Insert is idempotent: blacklisting the same jti twice is a no-op.
func (r *BlacklistRepository) Insert(ctx context.Context, jti string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.BlacklistedToken{JTI: jti, ExpiresAt: expiresAt}).Error
}

func (r *BlacklistRepository) Contains(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.BlacklistedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error
	return count > 0, err
}

// DeleteExpired removes rows that could only match already-expired tokens.
func (r *BlacklistRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&domain.BlacklistedToken{})
	return tx.RowsAffected, tx.Error
}
