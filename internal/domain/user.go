package domain

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// Scope strings checked against a token's granted scope set.
const (
	ScopeReadBooks     = "read:books"
	ScopeWriteBooks    = "write:books"
	ScopeManageLibrary = "manage:library"
	ScopeReadStats     = "read:stats"
	ScopeBorrowWrite   = "borrow:write"
)

// DefaultScopes returns the scope set granted at token issuance for a role.
// Admins hold the full set; regular users can browse and borrow.
func DefaultScopes(role UserRole) []string {
	if role == RoleAdmin {
		return []string{ScopeReadBooks, ScopeWriteBooks, ScopeManageLibrary, ScopeReadStats, ScopeBorrowWrite}
	}
	return []string{ScopeReadBooks, ScopeBorrowWrite}
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
