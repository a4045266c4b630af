package auth

import (
	"context"

	"github.com/mind-engage/mindengage-authoring/internal/rbac"
)

// WithClaims records the token's caller for handlers and RBAC checks.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return rbac.WithPrincipal(ctx, rbac.Principal{Subject: c.Sub, Role: c.Role})
}

// SubjectFromContext returns the authenticated caller's id, or "".
func SubjectFromContext(ctx context.Context) string {
	p, _ := rbac.PrincipalFromContext(ctx)
	return p.Subject
}
