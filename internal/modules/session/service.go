package session

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"liblend/internal/domain"
	"liblend/internal/pkg/token"
)

// Publisher receives session lifecycle events for the in-process bus.
type Publisher interface {
	Publish(name string, fields map[string]any)
}

// Service orchestrates the token lifecycle: issuing pairs at login,
// verifying presented tokens against the codec plus the revocation stores,
// refreshing access tokens, and revoking on logout. It is the only thing
// route handlers talk to.
//
// Known weakness, kept on purpose: refresh tokens are not rotated on use
// and replay is not detected, so two concurrent refreshes with the same
// token both succeed. The store's revoked flag leaves room to add rotation
// later.
type Service struct {
	users     UserStore
	refresh   RefreshTokenStore
	blacklist AccessTokenBlacklist
	codec     *token.Codec
	events    Publisher
	log       *logrus.Logger
}

func NewService(
	users UserStore,
	refresh RefreshTokenStore,
	blacklist AccessTokenBlacklist,
	codec *token.Codec,
	events Publisher,
	log *logrus.Logger,
) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		users:     users,
		refresh:   refresh,
		blacklist: blacklist,
		codec:     codec,
		events:    events,
		log:       log,
	}
}

// TokenPair is what login hands back to the client.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

type LoginResult struct {
	User *domain.User
	Pair *TokenPair
}

// Login verifies credentials against the user store and issues a token pair.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.publish("session.login", map[string]any{"user_id": user.ID, "username": user.Username})
	return &LoginResult{User: user, Pair: pair}, nil
}

// Issue mints an access+refresh pair for the user with the role's default
// scopes and fresh jti values, persisting the refresh record before the
// tokens leave the building. Each call produces an independently revocable
// pair; issuing never touches other sessions of the same user.
func (s *Service) Issue(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, _, err := s.codec.NewAccessToken(user.ID, user.Username, user.Role, domain.DefaultScopes(user.Role))
	if err != nil {
		return nil, err
	}

	refreshToken, refreshClaims, err := s.codec.NewRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.refresh.Insert(ctx, &domain.RefreshToken{
		JTI:       refreshClaims.ID,
		UserID:    user.ID,
		ExpiresAt: refreshClaims.ExpiresAt.Time,
		Revoked:   false,
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresIn:  s.codec.AccessTTL(),
		RefreshExpiresIn: s.codec.RefreshTTL(),
	}, nil
}

// VerifyAccess decodes a presented access token and then always checks the
// blacklist. The blacklist lookup is never skipped after a successful
// decode: it is the only way a token dies before its natural expiry.
func (s *Service) VerifyAccess(ctx context.Context, tokenStr string) (*token.AccessClaims, error) {
	claims, err := s.codec.DecodeAccess(tokenStr)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// VerifyRefresh decodes a presented refresh token and validates it against
// the persisted record: the row must exist, not be revoked, not have passed
// its stored expiry (authoritative, independent of the embedded exp), and
// belong to the same user the claims name.
func (s *Service) VerifyRefresh(ctx context.Context, tokenStr string) (*token.RefreshClaims, error) {
	claims, err := s.codec.DecodeRefresh(tokenStr)
	if err != nil {
		return nil, err
	}

	rec, err := s.refresh.FindByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, err
	}

	if rec.Revoked {
		return nil, ErrRefreshRevoked
	}
	if rec.IsExpired(time.Now()) {
		return nil, ErrRefreshExpired
	}
	if rec.UserID != claims.UserID {
		return nil, ErrRefreshUserMismatch
	}

	return claims, nil
}

// RefreshResult carries the freshly minted access token.
type RefreshResult struct {
	AccessToken     string
	AccessExpiresIn time.Duration
}

// Refresh trades a valid refresh token for a brand-new access token. The
// user is re-read from the store so a role change takes effect here, not
// trusted from stale claims. The refresh token itself is NOT rotated; it
// stays valid until its own expiry or an explicit logout.
func (s *Service) Refresh(ctx context.Context, refreshStr string) (*RefreshResult, error) {
	claims, err := s.VerifyRefresh(ctx, refreshStr)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	accessToken, _, err := s.codec.NewAccessToken(user.ID, user.Username, user.Role, domain.DefaultScopes(user.Role))
	if err != nil {
		return nil, err
	}

	s.publish("session.refresh", map[string]any{"user_id": user.ID})
	return &RefreshResult{AccessToken: accessToken, AccessExpiresIn: s.codec.AccessTTL()}, nil
}

// Logout blacklists the presented access token's jti and, when a refresh
// token accompanies it, marks its store row revoked. The access token must
// carry a valid signature but may already be expired: blacklisting an
// expired jti is harmless. A bad or absent refresh token never fails the
// logout.
func (s *Service) Logout(ctx context.Context, accessStr, refreshStr string) error {
	claims, err := s.codec.DecodeAccessLenient(accessStr)
	if err != nil {
		return err
	}

	if err := s.blacklist.Insert(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}

	if refreshStr != "" {
		if refreshClaims, err := s.codec.DecodeRefresh(refreshStr); err == nil {
			if err := s.refresh.Revoke(ctx, refreshClaims.ID); err != nil {
				return err
			}
		} else {
			s.log.WithError(err).Debug("ignoring invalid refresh token on logout")
		}
	}

	s.publish("session.logout", map[string]any{"user_id": claims.UserID, "jti": claims.ID})
	return nil
}

// Authorize decides role/scope access: admins bypass scope checks entirely,
// everyone else needs the required scope in their granted set.
func (s *Service) Authorize(claims *token.AccessClaims, requiredScope string) bool {
	return Authorize(claims, requiredScope)
}

// Authorize is the package-level scope decision so middleware can share it.
func Authorize(claims *token.AccessClaims, requiredScope string) bool {
	if claims == nil {
		return false
	}
	if claims.Role == domain.RoleAdmin {
		return true
	}
	for _, scope := range claims.Scopes {
		if scope == requiredScope {
			return true
		}
	}
	return false
}

func (s *Service) publish(name string, fields map[string]any) {
	if s.events != nil {
		s.events.Publish(name, fields)
	}
}
