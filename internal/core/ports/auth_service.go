package ports

import (
	"context"

	"github.com/smart-inventory/inventory-api/internal/core/domain"
)

// RegisterInput carries the fields submitted to register a user.
type RegisterInput struct {
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

// RoleChange describes a completed role update.
type RoleChange struct {
	UserID   int64
	Username string
	Email    string
	OldRole  domain.Role
	NewRole  domain.Role
}

// AuthService defines the authentication and role management use cases.
type AuthService interface {
	// Register creates a user. caller is the authenticated identity of the
	// requester, or nil for self-service registration.
	Register(ctx context.Context, in RegisterInput, caller *domain.Identity) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	CurrentUser(ctx context.Context, id domain.Identity) (*domain.User, error)
	// Refresh mints a new access token for an identity taken from a refresh token.
	Refresh(ctx context.Context, id domain.Identity) (string, error)
	ChangeRole(ctx context.Context, caller domain.Identity, targetID int64, newRole string) (*RoleChange, error)
}

// TokenParser validates a signed token of the wanted type and returns its identity.
type TokenParser interface {
	Parse(raw string, want domain.TokenType) (domain.Identity, error)
}
