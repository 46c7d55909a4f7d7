package session

import (
	"context"
	"time"

	"liblend/internal/domain"
)

// UserStore — only the credential-store methods the session service needs.
// Users are created and destroyed elsewhere; this module only reads them.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// RefreshTokenStore persists issued refresh tokens keyed by jti.
type RefreshTokenStore interface {
	Insert(ctx context.Context, t *domain.RefreshToken) error
	FindByJTI(ctx context.Context, jti string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, jti string) error
}

// AccessTokenBlacklist is the set of access-token jti values revoked before
// natural expiry.
type AccessTokenBlacklist interface {
	Insert(ctx context.Context, jti string, expiresAt time.Time) error
	Contains(ctx context.Context, jti string) (bool, error)
}
