package ports

import (
	"context"
	"time"

	"github.com/smart-inventory/inventory-api/internal/core/domain"
)

// UserRepository defines the persistence operations on user records.
// Lookups return domain.ErrUserNotFound when no row matches.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Insert stores user and returns the assigned id. Returns
	// domain.ErrUserExists if the username or email is already taken.
	Insert(ctx context.Context, user *domain.User) (int64, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateRole(ctx context.Context, id int64, role domain.Role, at time.Time) error
}
