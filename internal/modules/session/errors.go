package session

import (
	"errors"
	"net/http"

	"liblend/internal/pkg/token"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Access-token rejections beyond what the codec reports.
	ErrTokenRevoked = errors.New("token has been revoked")

	// Refresh-token rejections against the persisted store.
	ErrRefreshNotFound     = errors.New("refresh token not found")
	ErrRefreshRevoked      = errors.New("refresh token has been revoked")
	ErrRefreshExpired      = errors.New("refresh token expired")
	ErrRefreshUserMismatch = errors.New("refresh token user mismatch")

	ErrUserNotFound = errors.New("user not found")
)

// ErrorCode maps a session rejection to an HTTP status and a stable
// machine-checkable code. Clients retry with a refresh token on
// TOKEN_EXPIRED and re-authenticate on the revocation codes. Unrecognized
// errors are infrastructure faults and map to 500.
func ErrorCode(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, token.ErrExpired):
		return http.StatusUnauthorized, "TOKEN_EXPIRED"
	case errors.Is(err, token.ErrInvalidSignature):
		return http.StatusUnauthorized, "TOKEN_INVALID"
	case errors.Is(err, token.ErrMalformed):
		return http.StatusUnauthorized, "TOKEN_MALFORMED"
	case errors.Is(err, token.ErrWrongType):
		return http.StatusUnauthorized, "WRONG_TOKEN_TYPE"
	case errors.Is(err, ErrTokenRevoked):
		return http.StatusUnauthorized, "TOKEN_REVOKED"
	case errors.Is(err, ErrRefreshNotFound):
		return http.StatusUnauthorized, "REFRESH_NOT_FOUND"
	case errors.Is(err, ErrRefreshRevoked):
		return http.StatusUnauthorized, "REFRESH_REVOKED"
	case errors.Is(err, ErrRefreshExpired):
		return http.StatusUnauthorized, "REFRESH_EXPIRED"
	case errors.Is(err, ErrRefreshUserMismatch):
		return http.StatusUnauthorized, "REFRESH_USER_MISMATCH"
	case errors.Is(err, ErrUserNotFound):
		return http.StatusUnauthorized, "USER_NOT_FOUND"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
