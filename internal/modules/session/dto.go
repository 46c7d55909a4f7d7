package session

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest is optional: logout without a body still blacklists the
// presented access token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
