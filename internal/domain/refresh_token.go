package domain

import "time"

// RefreshToken is the persisted record behind an issued refresh token.
//
// The jti embedded in the signed token is the primary key here; revocation
// flips Revoked and never flips it back. Rows are kept until expiry for
// audit and garbage-collected afterwards (cmd/token-cleanup).
type RefreshToken struct {
	JTI       string    `json:"jti" gorm:"primaryKey;size:36"`
	UserID    int64     `json:"user_id" gorm:"index;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
	Revoked   bool      `json:"revoked" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
