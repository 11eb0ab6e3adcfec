package handler

import (
	"time"

	"github.com/smart-inventory/inventory-api/internal/core/domain"
	"github.com/smart-inventory/inventory-api/internal/core/ports"
)

// registerRequest is the body of POST /api/auth/register.
type registerRequest = ports.RegisterInput

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changeRoleRequest struct {
	UserID  int64  `json:"user_id"`
	NewRole string `json:"new_role"`
}

// userSummary is the public view of a user returned by register and login.
type userSummary struct {
	UserID    int64       `json:"user_id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
}

// userProfile is the view returned by GET /api/auth/me.
type userProfile struct {
	userSummary
	Phone     *string    `json:"phone"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

type registerResponse struct {
	Message string      `json:"message"`
	User    userSummary `json:"user"`
}

type loginResponse struct {
	Message      string      `json:"message"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         userSummary `json:"user"`
}

type meResponse struct {
	User userProfile `json:"user"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

type roleChangeView struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	OldRole  domain.Role `json:"old_role"`
	NewRole  domain.Role `json:"new_role"`
}

type changeRoleResponse struct {
	Message string         `json:"message"`
	User    roleChangeView `json:"user"`
}

// errorResponse is the body rendered by api.NewHTTPErrorHandler.
type errorResponse struct {
	Error string `json:"error"`
}

func toSummary(u *domain.User) userSummary {
	return userSummary{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func toProfile(u *domain.User) userProfile {
	p := userProfile{
		userSummary: toSummary(u),
		CreatedAt:   u.CreatedAt,
		LastLogin:   u.LastLogin,
	}
	if u.Phone != "" {
		phone := u.Phone
		p.Phone = &phone
	}
	return p
}

func toRoleChangeView(rc *ports.RoleChange) roleChangeView {
	return roleChangeView{
		UserID:   rc.UserID,
		Username: rc.Username,
		Email:    rc.Email,
		OldRole:  rc.OldRole,
		NewRole:  rc.NewRole,
	}
}
