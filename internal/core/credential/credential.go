// Package credential holds the input rules applied to user credentials before
// they reach the store: email format, password strength and required fields.
package credential

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password, in characters, accepted by
// ValidatePassword.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// SpecialCharacters is the set a password must draw at least one character from.
const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Password policy violations, in the order they are checked. The error text
// is returned to clients as-is.
var (
	ErrPasswordTooShort  = errors.New("Password must be at least 8 characters long")
	ErrPasswordNoUpper   = errors.New("Password must contain at least one uppercase letter")
	ErrPasswordNoLower   = errors.New("Password must contain at least one lowercase letter")
	ErrPasswordNoDigit   = errors.New("Password must contain at least one digit")
	ErrPasswordNoSpecial = errors.New("Password must contain at least one special character")
	ErrPasswordTooLong   = errors.New("Password must be at most 72 bytes long")
)

// ValidateEmail reports whether email looks like local@domain.tld with an
// alphabetic top-level domain of at least two letters. No DNS lookup is done.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePassword returns nil when password satisfies every rule, otherwise
// the first violated rule.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(SpecialCharacters, r):
			special = true
		}
	}

	switch {
	case !upper:
		return ErrPasswordNoUpper
	case !lower:
		return ErrPasswordNoLower
	case !digit:
		return ErrPasswordNoDigit
	case !special:
		return ErrPasswordNoSpecial
	case len(password) > MaxPasswordBytes:
		return ErrPasswordTooLong
	}
	return nil
}
