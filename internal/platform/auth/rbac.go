package auth

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
)

// RequireRole returns middleware that lets the request through only when the
// authenticated principal holds one of roles. It must run after Authenticate
// or RequireAnyAuthenticated. There is no admin bypass.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	denied := deniedMessage(roles)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return apperr.MissingToken(ErrMissingToken.Error())
			}
			for _, r := range roles {
				if p.Role == r {
					return next(c)
				}
			}
			return apperr.Forbidden(denied)
		}
	}
}

func deniedMessage(roles []Role) string {
	switch {
	case len(roles) == 1 && roles[0] == RoleAdmin:
		return "Access denied. Admins only."
	case len(roles) == 1 && roles[0] == RoleHospital:
		return "Access denied. Hospital only."
	case len(roles) == 2 && hasRole(roles, RoleHospital) && hasRole(roles, RoleDoctor):
		return "Access denied. Doctor and Hospital only."
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return fmt.Sprintf("Access denied. required role: %s", strings.Join(names, " or "))
}

func hasRole(roles []Role, want Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
