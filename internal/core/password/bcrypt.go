// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher produces self-describing bcrypt hashes (version, cost and salt
// are embedded in the output).
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when cost
// is outside bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns a freshly salted hash of password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. Malformed hashes never match.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
