package rbac

import (
	"context"
	"strings"
)

// Checker resolves permissions of the form "area:action". A trailing "*"
// in a granted permission matches any suffix.
type Checker struct {
	RolePermissions map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

var defaultChecker = NewChecker(nil)

func (c *Checker) Has(role, perm string) bool {
	for _, granted := range c.RolePermissions[role] {
		if granted == perm || granted == "*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(granted, "*"); ok && strings.HasPrefix(perm, prefix) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// Can checks the role carried by ctx against the default policy.
func Can(ctx context.Context, perm string) bool {
	role := RoleFromContext(ctx)
	return role != "" && defaultChecker.Has(role, perm)
}

type ctxKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}
