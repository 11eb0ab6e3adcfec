package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/rs/zerolog"

	"github.com/smart-inventory/inventory-api/internal/core/credential"
	"github.com/smart-inventory/inventory-api/internal/core/domain"
	"github.com/smart-inventory/inventory-api/internal/core/ports"
	"github.com/smart-inventory/inventory-api/internal/pkg/metrics"
)

const minUsernameLength = 3

// Client-facing messages. The two invalid-credential texts differ on purpose:
// existing clients match on them.
const (
	msgRoleInvalid         = "Role must be either admin or employee"
	msgEmailInvalid        = "Invalid email format"
	msgUsernameTooShort    = "Username must be at least 3 characters long"
	msgUsernameExists      = "Username already exists"
	msgEmailExists         = "Email already exists"
	msgUserExists          = "Username or email already exists"
	msgLoginFieldsRequired = "Email and password are required"
	msgUnknownEmail        = "Invalid email or password"
	msgWrongPassword       = "Invalid username or password"
	msgAccountInactive     = "Account is inactive. Please contact administrator"
	msgTooManyAttempts     = "Too many failed login attempts. Please try again later"
	msgUserNotFound        = "User not found"
	msgUserGone            = "User not found or inactive"
	msgAdminRequired       = "Unauthorized. Admin access required"
	msgRoleFieldsRequired  = "user_id and new_role are required"
	msgCannotChangeOwnRole = "Cannot change your own role"
	msgRegistrationFailed  = "Registration failed"
	msgLoginFailed         = "Login failed"
	msgGetUserFailed       = "Failed to get user"
	msgTokenRefreshFailed  = "Token refresh failed"
	msgRoleChangeFailed    = "Role change failed"
)

// TokenIssuer signs tokens for an identity.
type TokenIssuer interface {
	Issue(id domain.Identity, typ domain.TokenType) (string, error)
}

// Options tunes optional AuthService behaviour.
type Options struct {
	// Limiter throttles failed logins. Nil disables throttling.
	Limiter ports.LoginLimiter
	// RefreshChecksUser makes Refresh reload the user and reject deleted or
	// deactivated accounts.
	RefreshChecksUser bool
}

// AuthService implements registration, login, token refresh and role changes.
type AuthService struct {
	repo      ports.UserRepository
	hasher    ports.PasswordHasher
	tokens    TokenIssuer
	validator *credential.Validator
	opts      Options
	logger    zerolog.Logger
	now       func() time.Time
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens TokenIssuer,
	opts Options,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		validator: credential.NewValidator(),
		opts:      opts,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register validates in, hashes the password and stores a new user. When
// caller is non-nil the new record is attributed to it through created_by.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput, caller *domain.Identity) (*domain.User, error) {
	if err := s.validator.Validate(&in); err != nil {
		return nil, domain.Validation(err.Error())
	}

	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	role := domain.Role(strings.ToLower(in.Role))

	if !role.Valid() {
		return nil, domain.Validation(msgRoleInvalid)
	}
	if !credential.ValidateEmail(email) {
		return nil, domain.Validation(msgEmailInvalid)
	}
	if err := credential.ValidatePassword(in.Password); err != nil {
		return nil, domain.Validation(err.Error())
	}
	if utf8.RuneCountInString(username) < minUsernameLength {
		return nil, domain.Validation(msgUsernameTooShort)
	}

	if taken, err := s.exists(ctx, s.repo.FindByUsername, username); err != nil {
		return nil, s.internal(msgRegistrationFailed, err)
	} else if taken {
		return nil, domain.Conflict(msgUsernameExists)
	}
	if taken, err := s.exists(ctx, s.repo.FindByEmail, email); err != nil {
		return nil, s.internal(msgRegistrationFailed, err)
	} else if taken {
		return nil, domain.Conflict(msgEmailExists)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal(msgRegistrationFailed, err)
	}

	now := s.now()
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if caller != nil {
		createdBy := caller.UserID
		user.CreatedBy = &createdBy
	}

	id, err := s.repo.Insert(ctx, user)
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.Conflict(msgUserExists)
		}
		return nil, s.internal(msgRegistrationFailed, err)
	}
	user.ID = id

	metrics.RegistrationsTotal.WithLabelValues(string(role)).Inc()
	s.logger.Info().
		Int64("user_id", id).
		Str("username", username).
		Str("role", string(role)).
		Bool("admin_created", caller != nil).
		Msg("user registered")

	return user, nil
}

// Login checks credentials and returns a fresh access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.Validation(msgLoginFieldsRequired)
	}
	email = normalizeEmail(email)

	if s.blocked(ctx, email) {
		metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		return nil, domain.TooManyRequests(msgTooManyAttempts)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.recordFailure(ctx, email)
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.Unauthorized(msgUnknownEmail)
	}
	if err != nil {
		return nil, s.internal(msgLoginFailed, err)
	}

	if !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		return nil, domain.Forbidden(msgAccountInactive)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recordFailure(ctx, email)
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.Unauthorized(msgWrongPassword)
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, s.internal(msgLoginFailed, err)
	}
	user.LastLogin = &now

	id := domain.IdentityOf(user)
	access, err := s.tokens.Issue(id, domain.TokenAccess)
	if err != nil {
		return nil, s.internal(msgLoginFailed, err)
	}
	refresh, err := s.tokens.Issue(id, domain.TokenRefresh)
	if err != nil {
		return nil, s.internal(msgLoginFailed, err)
	}

	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.Reset(ctx, email); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to reset login attempts")
		}
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("login successful")

	return &ports.LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// CurrentUser returns the active user behind id.
func (s *AuthService) CurrentUser(ctx context.Context, id domain.Identity) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, s.internal(msgGetUserFailed, err)
	}
	if !user.IsActive {
		return nil, domain.NotFound(msgUserNotFound)
	}
	return user, nil
}

// Refresh issues a new access token for an identity read from a refresh token.
func (s *AuthService) Refresh(ctx context.Context, id domain.Identity) (string, error) {
	if s.opts.RefreshChecksUser {
		user, err := s.repo.FindByID(ctx, id.UserID)
		if errors.Is(err, domain.ErrUserNotFound) || (err == nil && !user.IsActive) {
			metrics.TokenRefreshTotal.WithLabelValues("rejected").Inc()
			return "", domain.Unauthorized(msgUserGone)
		}
		if err != nil {
			return "", s.internal(msgTokenRefreshFailed, err)
		}
		id = domain.IdentityOf(user)
	}

	token, err := s.tokens.Issue(id, domain.TokenAccess)
	if err != nil {
		return "", s.internal(msgTokenRefreshFailed, err)
	}
	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	return token, nil
}

// ChangeRole lets an admin set the role of another user.
func (s *AuthService) ChangeRole(ctx context.Context, caller domain.Identity, targetID int64, newRole string) (*ports.RoleChange, error) {
	if caller.Role != domain.RoleAdmin {
		return nil, domain.Forbidden(msgAdminRequired)
	}
	if targetID == 0 || newRole == "" {
		return nil, domain.Validation(msgRoleFieldsRequired)
	}

	role := domain.Role(strings.ToLower(newRole))
	if !role.Valid() {
		return nil, domain.Validation(msgRoleInvalid)
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, s.internal(msgRoleChangeFailed, err)
	}
	if target.ID == caller.UserID {
		return nil, domain.Validation(msgCannotChangeOwnRole)
	}

	if err := s.repo.UpdateRole(ctx, target.ID, role, s.now()); err != nil {
		return nil, s.internal(msgRoleChangeFailed, err)
	}

	metrics.RoleChangesTotal.WithLabelValues(string(role)).Inc()
	s.logger.Info().
		Int64("user_id", target.ID).
		Int64("changed_by", caller.UserID).
		Str("old_role", string(target.Role)).
		Str("new_role", string(role)).
		Msg("user role changed")

	return &ports.RoleChange{
		UserID:   target.ID,
		Username: target.Username,
		Email:    target.Email,
		OldRole:  target.Role,
		NewRole:  role,
	}, nil
}

func (s *AuthService) exists(ctx context.Context, find func(context.Context, string) (*domain.User, error), key string) (bool, error) {
	_, err := find(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// blocked fails open: a limiter outage must not lock everyone out.
func (s *AuthService) blocked(ctx context.Context, key string) bool {
	if s.opts.Limiter == nil {
		return false
	}
	blocked, err := s.opts.Limiter.Blocked(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login limiter check failed, allowing attempt")
		return false
	}
	return blocked
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if s.opts.Limiter == nil {
		return
	}
	if err := s.opts.Limiter.RecordFailure(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record login failure")
	}
}

func (s *AuthService) internal(msg string, err error) error {
	s.logger.Error().Err(err).Msg(strings.ToLower(msg))
	return domain.Internal(msg, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
