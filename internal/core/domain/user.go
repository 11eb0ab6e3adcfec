package domain

import "time"

// Role is the authorization level carried by a user and embedded in tokens.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// User models an account of the inventory application.
type User struct {
	ID           int64      `json:"user_id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Phone        string     `json:"phone"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedBy    *int64     `json:"created_by"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Identity is the payload embedded in access and refresh tokens.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IdentityOf returns the token identity of u.
func IdentityOf(u *User) Identity {
	return Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)
