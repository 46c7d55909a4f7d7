package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"liblend/internal/domain"
	"liblend/internal/modules/session"
	"liblend/internal/pkg/response"
)

// RequireScope gates a route on a scope grant. Admins bypass the check;
// everyone else must hold the scope in their token. Runs after Auth.
func RequireScope(requiredScope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := session.ClaimsFromContext(c)
		if !ok {
			response.AbortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		if !session.Authorize(claims, requiredScope) {
			response.AbortError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}

// AdminOnly requires the admin role regardless of scopes.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := session.ClaimsFromContext(c)
		if !ok {
			response.AbortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		if claims.Role != domain.RoleAdmin {
			response.AbortError(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
			return
		}

		c.Next()
	}
}
