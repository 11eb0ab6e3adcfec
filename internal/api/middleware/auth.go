package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/smart-inventory/inventory-api/internal/core/domain"
	"github.com/smart-inventory/inventory-api/internal/core/ports"
)

const identityKey = "identity"

const (
	msgMissingHeader  = "Missing authorization header"
	msgInvalidHeader  = "Invalid authorization header"
	msgInvalidToken   = "Invalid or expired token"
	msgAccessOnly     = "Only access tokens are allowed"
	msgRefreshOnly    = "Only refresh tokens are allowed"
	msgNotAuthorized  = "Authentication required"
	msgAdminRequired  = "Unauthorized. Admin access required"
	msgRoleNotAllowed = "Insufficient permissions"
)

// Auth validates the bearer token, requires it to be of type want and stores
// the identity it carries in the echo context.
func Auth(parser ports.TokenParser, want domain.TokenType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}

			id, err := parser.Parse(raw, want)
			if err != nil {
				return tokenError(err, want)
			}

			SetIdentity(c, id)
			return next(c)
		}
	}
}

// OptionalAuth stores the identity of a valid access token when one is
// presented and otherwise lets the request through anonymously.
func OptionalAuth(parser ports.TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, err := bearerToken(c); err == nil {
				if id, err := parser.Parse(raw, domain.TokenAccess); err == nil {
					SetIdentity(c, id)
				}
			}
			return next(c)
		}
	}
}

// SetIdentity stores id as the authenticated identity of the request.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity stored by Auth or OptionalAuth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, msgMissingHeader)
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, msgInvalidHeader)
	}
	return strings.TrimSpace(parts[1]), nil
}

func tokenError(err error, want domain.TokenType) error {
	if errors.Is(err, domain.ErrWrongTokenType) {
		if want == domain.TokenRefresh {
			return echo.NewHTTPError(http.StatusUnauthorized, msgRefreshOnly)
		}
		return echo.NewHTTPError(http.StatusUnauthorized, msgAccessOnly)
	}
	return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
}
