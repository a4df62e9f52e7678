package auth

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
)

// IdentityLookup resolves a token's internal id to the stored identity.
// Implementations return an apperr NotFound error when the identity is gone.
type IdentityLookup interface {
	LookupIdentity(ctx context.Context, internalID string) (Principal, error)
}

// Authenticate verifies the bearer token and attaches the decoded Principal
// to the request context. It does not touch the identity store.
func Authenticate(tokens *TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := verifyRequest(c, tokens)
			if err != nil {
				return err
			}
			setPrincipal(c, claims.Principal())
			return next(c)
		}
	}
}

// RequireAnyAuthenticated verifies the token and additionally requires the
// identity it names to still exist. The attached Principal is rebuilt from
// the stored identity.
func RequireAnyAuthenticated(tokens *TokenService, identities IdentityLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := verifyRequest(c, tokens)
			if err != nil {
				return err
			}

			p, err := identities.LookupIdentity(c.Request().Context(), claims.InternalID)
			if err != nil {
				if apperr.Is(err, apperr.KindNotFound) {
					return apperr.Unauthenticated("User not found")
				}
				return apperr.Internal("identity lookup failed", err)
			}
			// Role comes from the token, as the decoded claims are what the
			// role guards evaluate.
			p.Role = claims.Role
			setPrincipal(c, p)
			return next(c)
		}
	}
}

func verifyRequest(c echo.Context, tokens *TokenService) (*Claims, error) {
	tokenStr, err := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return nil, apperr.MissingToken(ErrMissingToken.Error())
	}
	claims, err := tokens.Verify(tokenStr)
	if err != nil {
		return nil, apperr.InvalidToken("Invalid token", err)
	}
	return claims, nil
}

func setPrincipal(c echo.Context, p Principal) {
	ctx := WithPrincipal(c.Request().Context(), p)
	c.SetRequest(c.Request().WithContext(ctx))
}
