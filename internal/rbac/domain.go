package rbac

import (
	"context"

	"github.com/mutiara-bangsa/storefront/internal/shared"
)

// Principal describes the authenticated actor resolved once per request.
type Principal struct {
	UserID   string
	FullName string
	Email    string
	Role     string
}

// IsAdmin reports whether the principal manages the catalog.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == shared.RoleAdmin
}

// HasRole reports whether the principal holds one of roles.
func (p *Principal) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// HomePath is the dashboard the principal lands on.
func (p *Principal) HomePath() string {
	if p == nil {
		return shared.PathLogin
	}
	return shared.HomePathForRole(p.Role)
}

type principalContextKey struct{}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the request principal or nil when anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
