package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"liblend/internal/modules/session"
	"liblend/internal/pkg/response"
	"liblend/internal/pkg/token"
)

// AccessVerifier is the slice of the session service the auth middleware
// needs.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, tokenStr string) (*token.AccessClaims, error)
}

// Auth extracts the Bearer token, verifies it (signature, expiry, blacklist)
// and stores the claims on the context for handlers downstream. A missing
// or malformed header is reported distinctly from a failed decode.
func Auth(verifier AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.AbortError(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing Authorization header")
			return
		}

		if !strings.HasPrefix(h, "Bearer ") {
			response.AbortError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			response.AbortError(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Empty bearer token")
			return
		}

		claims, err := verifier.VerifyAccess(c.Request.Context(), tokenStr)
		if err != nil {
			status, code := session.ErrorCode(err)
			response.AbortError(c, status, code, "Token is invalid or expired")
			return
		}

		c.Set("claims", claims)
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", string(claims.Role))
		c.Set("jti", claims.ID)

		c.Next()
	}
}
