package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smart-inventory/inventory-api/internal/api/middleware"
	"github.com/smart-inventory/inventory-api/internal/core/domain"
	"github.com/smart-inventory/inventory-api/internal/core/ports"
)

const (
	msgInvalidPayload     = "Invalid request payload"
	msgRegistered         = "User registered successfully"
	msgLoginSuccessful    = "Login successful"
	msgRoleChangedFormat  = "User role updated successfully from %s to %s"
	msgMissingIdentity    = "Authentication required"
	msgRoleFieldsRequired = "user_id and new_role are required"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account. When called with a valid access token
// the new account records the caller as its creator.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest   true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validation(msgInvalidPayload)
	}

	var caller *domain.Identity
	if id, ok := middleware.IdentityFrom(c); ok {
		caller = &id
	}

	user, err := h.authService.Register(c.Request().Context(), req, caller)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{
		Message: msgRegistered,
		User:    toSummary(user),
	})
}

// Login authenticates a user and returns an access and a refresh token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validation(msgInvalidPayload)
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		Message:      msgLoginSuccessful,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         toSummary(res.User),
	})
}

// Me returns the profile of the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Unauthorized(msgMissingIdentity)
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, meResponse{User: toProfile(user)})
}

// Refresh exchanges a refresh token for a new access token.
//
// @Summary      Refresh access token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  refreshResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Unauthorized(msgMissingIdentity)
	}

	token, err := h.authService.Refresh(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, refreshResponse{AccessToken: token})
}

// ChangeRole sets the role of another user. Admin only.
//
// @Summary      Change a user's role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changeRoleRequest  true  "Target user and new role"
// @Success      200   {object}  changeRoleResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/change-role [put]
func (h *AuthHandler) ChangeRole(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Unauthorized(msgMissingIdentity)
	}

	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validation(msgRoleFieldsRequired)
	}

	rc, err := h.authService.ChangeRole(c.Request().Context(), id, req.UserID, req.NewRole)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, changeRoleResponse{
		Message: fmt.Sprintf(msgRoleChangedFormat, rc.OldRole, rc.NewRole),
		User:    toRoleChangeView(rc),
	})
}
