package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"liblend/internal/domain"
	"liblend/internal/pkg/response"
	"liblend/internal/pkg/token"
)

// Handler exposes the session lifecycle over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the routes that must work without a valid
// access token. Logout lives here because an expired access token is still
// good enough to blacklist.
func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.DELETE("/logout", h.Logout)
	}
}

// RegisterProtectedRoutes mounts the routes behind the auth middleware.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/auth/me", h.Me)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "username and password are required")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		status, code := ErrorCode(err)
		if status == http.StatusInternalServerError {
			response.Error(c, status, code, "failed to log in")
			return
		}
		response.Error(c, status, code, "invalid username or password")
		return
	}

	links := response.Links{
		"self":    {Href: "/api/v1/auth/login", Method: "POST"},
		"verify":  {Href: "/api/v1/auth/me", Method: "GET"},
		"refresh": {Href: "/api/v1/auth/refresh", Method: "POST"},
		"logout":  {Href: "/api/v1/auth/logout", Method: "DELETE"},
		"books":   {Href: "/api/v1/books", Method: "GET"},
	}
	if result.User.Role == domain.RoleAdmin {
		links["statistics"] = response.Link{Href: "/api/v1/stats", Method: "GET"}
	}

	response.Success(c, http.StatusOK, "Login successful", gin.H{
		"id":            result.User.ID,
		"username":      result.User.Username,
		"role":          result.User.Role,
		"access_token":  result.Pair.AccessToken,
		"refresh_token": result.Pair.RefreshToken,
	}, links, gin.H{
		"access_token_expires_in":  int(result.Pair.AccessExpiresIn.Seconds()),
		"refresh_token_expires_in": int(result.Pair.RefreshExpiresIn.Seconds()),
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "refresh_token is required")
		return
	}

	result, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		status, code := ErrorCode(err)
		response.Error(c, status, code, "could not refresh access token")
		return
	}

	response.Success(c, http.StatusOK, "Access token refreshed", gin.H{
		"access_token": result.AccessToken,
	}, response.Links{
		"self":   {Href: "/api/v1/auth/refresh", Method: "POST"},
		"verify": {Href: "/api/v1/auth/me", Method: "GET"},
		"logout": {Href: "/api/v1/auth/logout", Method: "DELETE"},
	}, gin.H{
		"access_token_expires_in": int(result.AccessExpiresIn.Seconds()),
	})
}

func (h *Handler) Logout(c *gin.Context) {
	accessToken, ok := bearerToken(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing or invalid Authorization header")
		return
	}

	// Body is optional; a missing or unparsable refresh token must not
	// stop the access token from being blacklisted.
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.service.Logout(c.Request.Context(), accessToken, req.RefreshToken); err != nil {
		status, code := ErrorCode(err)
		response.Error(c, status, code, "could not log out")
		return
	}

	response.Success(c, http.StatusOK, "Logged out successfully", nil, response.Links{
		"login": {Href: "/api/v1/auth/login", Method: "POST"},
		"home":  {Href: "/", Method: "GET"},
	}, nil)
}

func (h *Handler) Me(c *gin.Context) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	response.Success(c, http.StatusOK, "Token is valid", gin.H{
		"id":       claims.UserID,
		"username": claims.Username,
		"role":     claims.Role,
		"scopes":   claims.Scopes,
	}, response.Links{
		"self":    {Href: "/api/v1/auth/me", Method: "GET"},
		"refresh": {Href: "/api/v1/auth/refresh", Method: "POST"},
		"logout":  {Href: "/api/v1/auth/logout", Method: "DELETE"},
		"books":   {Href: "/api/v1/books", Method: "GET"},
	}, gin.H{
		"token_expires_at": claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// ClaimsFromContext pulls the verified access claims the auth middleware
// stored on the request.
func ClaimsFromContext(c *gin.Context) (*token.AccessClaims, bool) {
	v, exists := c.Get("claims")
	if !exists {
		return nil, false
	}
	claims, ok := v.(*token.AccessClaims)
	return claims, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tokenStr, tokenStr != ""
}
