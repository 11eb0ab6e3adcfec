package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smart-inventory/inventory-api/internal/core/domain"
)

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// Claims is the JWT payload shared by access and refresh tokens.
type Claims struct {
	UserID   int64            `json:"user_id"`
	Username string           `json:"username"`
	Role     domain.Role      `json:"role"`
	Type     domain.TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256-signed tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue signs a token of type typ carrying id.
func (s *TokenService) Issue(id domain.Identity, typ domain.TokenType) (string, error) {
	ttl := s.accessTTL
	if typ == domain.TokenRefresh {
		ttl = s.refreshTTL
	}

	now := s.now()
	claims := Claims{
		UserID:   id.UserID,
		Username: id.Username,
		Role:     id.Role,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse verifies raw and returns its identity. It fails with
// domain.ErrInvalidToken for bad signatures, expired or malformed tokens and
// with domain.ErrWrongTokenType when the token is valid but of another type.
func (s *TokenService) Parse(raw string, want domain.TokenType) (domain.Identity, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tkn.Valid {
		return domain.Identity{}, errors.Join(domain.ErrInvalidToken, err)
	}
	if claims.Type != want {
		return domain.Identity{}, domain.ErrWrongTokenType
	}

	return domain.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}
