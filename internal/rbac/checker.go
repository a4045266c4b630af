package rbac

import (
	"context"
	"strings"
)

// Checker matches role permissions. Patterns may end in "*" to cover a
// whole family ("exam:*"); a bare "*" covers everything.
type Checker struct {
	RolePermissions map[string][]string
}

// NewChecker uses rp, or the authoring policy in RolePermissions when rp
// is nil.
func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role, perm string) bool {
	for _, p := range c.RolePermissions[role] {
		if matchPerm(p, perm) {
			return true
		}
	}
	return false
}

// Can reports whether the caller in ctx holds perm.
func (c *Checker) Can(ctx context.Context, perm string) bool {
	p, ok := PrincipalFromContext(ctx)
	return ok && p.Role != "" && c.Has(p.Role, perm)
}

// AttemptOwner says whose attempts the caller may read. all is true for
// attempt:view-all; otherwise owner is the caller's own id when it holds
// attempt:view-own. ok is false when it may read none.
func (c *Checker) AttemptOwner(ctx context.Context) (owner string, all, ok bool) {
	switch p, _ := PrincipalFromContext(ctx); {
	case c.Can(ctx, PermAttemptViewAll):
		return "", true, true
	case c.Can(ctx, PermAttemptViewOwn) && p.Subject != "":
		return p.Subject, false, true
	}
	return "", false, false
}

func matchPerm(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// ---- caller in context ----

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string
	Role    string
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// WithRole sets only the caller's role, keeping any subject already set.
func WithRole(ctx context.Context, role string) context.Context {
	p, _ := PrincipalFromContext(ctx)
	p.Role = role
	return WithPrincipal(ctx, p)
}

func RoleFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.Role
}
