package auth

import (
	"context"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller attached to a request context by the
// guard chain.
type Principal struct {
	InternalID string
	PublicID   string
	Role       Role
	Email      string
}

func (p Principal) Is(role Role) bool { return p.Role == role }

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal set by the guards, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// UserIDFromContext returns the caller's public id, or "" when the request
// is unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.PublicID
}
