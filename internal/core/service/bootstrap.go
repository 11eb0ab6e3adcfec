package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/smart-inventory/inventory-api/internal/core/credential"
	"github.com/smart-inventory/inventory-api/internal/core/domain"
)

// EnsureAdmin creates the bootstrap admin account unless a user with the
// same username or email is already stored. It reports whether a user was
// created. The account has no creator and is subject to the password policy.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if utf8.RuneCountInString(username) < minUsernameLength {
		return false, fmt.Errorf("seed admin: %s", msgUsernameTooShort)
	}
	if !credential.ValidateEmail(email) {
		return false, fmt.Errorf("seed admin: %s", msgEmailInvalid)
	}
	if err := credential.ValidatePassword(password); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	for _, check := range []struct {
		find func(context.Context, string) (*domain.User, error)
		key  string
	}{
		{s.repo.FindByUsername, username},
		{s.repo.FindByEmail, email},
	} {
		taken, err := s.exists(ctx, check.find, check.key)
		if err != nil {
			return false, fmt.Errorf("seed admin: %w", err)
		}
		if taken {
			return false, nil
		}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	now := s.now()
	id, err := s.repo.Insert(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		FirstName:    "Admin",
		LastName:     "User",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	s.logger.Info().Int64("user_id", id).Str("username", username).Msg("admin account seeded")
	return true, nil
}
