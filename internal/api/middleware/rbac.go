package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/smart-inventory/inventory-api/internal/core/domain"
)

// RBAC enforces role-based access control on the identity stored by Auth.
// It must run after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	msg := msgRoleNotAllowed
	if len(allowedRoles) == 1 && allowedRoles[0] == domain.RoleAdmin {
		msg = msgAdminRequired
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return domain.Unauthorized(msgNotAuthorized)
			}
			if _, ok := allowed[id.Role]; !ok {
				return domain.Forbidden(msg)
			}
			return next(c)
		}
	}
}
