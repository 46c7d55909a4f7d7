package token

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"liblend/internal/domain"
)

// Decode rejections. Every malformed or attacker-supplied token maps to one
// of these; the codec never panics on bad input.
var (
	ErrExpired          = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrMalformed        = errors.New("token malformed")
	ErrWrongType        = errors.New("wrong token type")
)

const refreshTokenType = "refresh"

// AccessClaims is the payload of an access token. The jti lives in
// RegisteredClaims.ID and is the blacklist key.
type AccessClaims struct {
	UserID   int64           `json:"user_id"`
	Username string          `json:"username"`
	Role     domain.UserRole `json:"role"`
	Scopes   []string        `json:"scopes"`
	jwtlib.RegisteredClaims
}

// RefreshClaims deliberately has a different shape from AccessClaims: the
// type tag plus the missing identity fields keep a refresh token from ever
// passing where an access token is expected, and vice versa.
type RefreshClaims struct {
	UserID    int64  `json:"user_id"`
	TokenType string `json:"type"`
	jwtlib.RegisteredClaims
}

// Codec signs and verifies tokens with a process-wide HS256 secret.
// Rotating the secret invalidates everything outstanding.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// NewAccessToken mints a signed access token with a fresh jti.
func (c *Codec) NewAccessToken(userID int64, username string, role domain.UserRole, scopes []string) (string, *AccessClaims, error) {
	now := time.Now()
	claims := &AccessClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		Scopes:   scopes,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.accessTTL)),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// NewRefreshToken mints a signed refresh token with a fresh jti. The caller
// persists the returned claims' jti/expiry before handing the token out.
func (c *Codec) NewRefreshToken(userID int64) (string, *RefreshClaims, error) {
	now := time.Now()
	claims := &RefreshClaims{
		UserID:    userID,
		TokenType: refreshTokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.refreshTTL)),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// DecodeAccess verifies signature and expiry and returns the claims, or one
// of the typed rejections. A refresh token presented here fails ErrWrongType.
func (c *Codec) DecodeAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	// A refresh token decoded into AccessClaims leaves the identity
	// fields empty; the explicit shape check closes the confusion hole.
	if claims.Username == "" || claims.Role == "" {
		return nil, ErrWrongType
	}
	return claims, nil
}

// DecodeAccessLenient verifies the signature but tolerates an expired token.
// Logout uses it: blacklisting an already-expired jti is harmless, while a
// forged token must still be refused.
func (c *Codec) DecodeAccessLenient(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	err := c.parse(tokenStr, claims)
	if err != nil && !errors.Is(err, ErrExpired) {
		return nil, err
	}
	if claims.Username == "" || claims.Role == "" {
		return nil, ErrWrongType
	}
	return claims, nil
}

// DecodeRefresh verifies signature, expiry and the refresh type tag.
func (c *Codec) DecodeRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != refreshTokenType {
		return nil, ErrWrongType
	}
	return claims, nil
}

func (c *Codec) parse(tokenStr string, claims jwtlib.Claims) error {
	_, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (any, error) {
		return c.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwtlib.ErrTokenExpired):
			return ErrExpired
		case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
			return ErrInvalidSignature
		default:
			return ErrMalformed
		}
	}
	return nil
}
