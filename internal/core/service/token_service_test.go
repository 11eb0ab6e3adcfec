package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smart-inventory/inventory-api/internal/core/domain"
)

func TestTokenService_IssueAndParse(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 48*time.Hour)
	id := domain.Identity{UserID: 3, Username: "carol", Role: domain.RoleAdmin}

	for _, typ := range []domain.TokenType{domain.TokenAccess, domain.TokenRefresh} {
		raw, err := svc.Issue(id, typ)
		if err != nil {
			t.Fatalf("Issue(%s) returned error: %v", typ, err)
		}
		got, err := svc.Parse(raw, typ)
		if err != nil {
			t.Fatalf("Parse(%s) returned error: %v", typ, err)
		}
		if got != id {
			t.Fatalf("expected %+v, got %+v", id, got)
		}
	}
}

func TestTokenService_Expiry(t *testing.T) {
	svc := NewTokenService("secret", 0, 0)
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	access, err := svc.Issue(domain.Identity{UserID: 1}, domain.TokenAccess)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	refresh, err := svc.Issue(domain.Identity{UserID: 1}, domain.TokenRefresh)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(23 * time.Hour) }
	if _, err := svc.Parse(access, domain.TokenAccess); err != nil {
		t.Fatalf("access token should still be valid: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(25 * time.Hour) }
	if _, err := svc.Parse(access, domain.TokenAccess); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired access token, got %v", err)
	}
	if _, err := svc.Parse(refresh, domain.TokenRefresh); err != nil {
		t.Fatalf("refresh token should still be valid: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(31 * 24 * time.Hour) }
	if _, err := svc.Parse(refresh, domain.TokenRefresh); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired refresh token, got %v", err)
	}
}

func TestTokenService_WrongType(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, time.Hour)

	refresh, _ := svc.Issue(domain.Identity{UserID: 1}, domain.TokenRefresh)
	if _, err := svc.Parse(refresh, domain.TokenAccess); !errors.Is(err, domain.ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}

	access, _ := svc.Issue(domain.Identity{UserID: 1}, domain.TokenAccess)
	if _, err := svc.Parse(access, domain.TokenRefresh); !errors.Is(err, domain.ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestTokenService_RejectsForeignSignatures(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, time.Hour)

	other := NewTokenService("other-secret", time.Hour, time.Hour)
	raw, _ := other.Issue(domain.Identity{UserID: 1}, domain.TokenAccess)
	if _, err := svc.Parse(raw, domain.TokenAccess); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	// Same secret, different HMAC algorithm.
	claims := Claims{
		UserID: 1,
		Type:   domain.TokenAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Parse(hs512, domain.TokenAccess); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS512, got %v", err)
	}

	if _, err := svc.Parse("not-a-token", domain.TokenAccess); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestTokenService_RequiresExpiry(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, time.Hour)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1, Type: domain.TokenAccess}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Parse(raw, domain.TokenAccess); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for token without exp, got %v", err)
	}
}
