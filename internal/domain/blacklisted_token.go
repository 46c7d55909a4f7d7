package domain

import "time"

// BlacklistedToken marks an access-token jti as revoked before its natural
// expiry. Once ExpiresAt passes the row is inert (the codec's own expiry
// check already rejects the token) and may be garbage-collected.
type BlacklistedToken struct {
	JTI           string    `json:"jti" gorm:"primaryKey;size:36"`
	ExpiresAt     time.Time `json:"expires_at" gorm:"index;not null"`
	BlacklistedAt time.Time `json:"blacklisted_at" gorm:"autoCreateTime"`
}
