// Package access resolves caller roles and gates admin-only operations.
//
// Identity is owned by an external collaborator that issues signed bearer
// tokens carrying a role claim. This package verifies those tokens, carries
// the resulting claims through the request context and exposes the
// "is admin" predicate that the job source registry checks before every
// mutation.
package access

import (
	"context"
	"errors"
	"strings"
)

// ErrUnauthorized is returned when a caller without the admin role
// attempts an admin-only operation.
var ErrUnauthorized = errors.New("unauthorized: admin role required")

// Role is the access level of a caller.
type Role string

const (
	// RoleAdmin may manage job sources.
	RoleAdmin Role = "admin"
	// RoleUser is an authenticated, non-privileged caller.
	RoleUser Role = "user"
	// RoleGuest is an anonymous caller.
	RoleGuest Role = "guest"
)

// IsValid returns true if the role is known.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser || r == RoleGuest
}

// ParseRole converts a string to a Role, case-insensitively.
// Unknown values map to RoleGuest and ok=false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return RoleGuest, false
	}
	return r, true
}

type ctxKey struct{}

// WithClaims returns a new context with the given claims attached.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// ClaimsFromContext extracts claims from the context.
// Returns nil if no claims are present.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxKey{}).(*Claims)
	return c
}

// RoleFromContext returns the caller's role. Callers without claims are
// guests.
func RoleFromContext(ctx context.Context) Role {
	c := ClaimsFromContext(ctx)
	if c == nil {
		return RoleGuest
	}
	r, _ := ParseRole(string(c.Role))
	return r
}

// IsAdmin reports whether the caller holds the admin role.
func IsAdmin(ctx context.Context) bool {
	return RoleFromContext(ctx) == RoleAdmin
}

// Gate is the capability check applied before admin-only operations.
type Gate func(ctx context.Context) bool

// Require returns ErrUnauthorized unless the gate admits the caller.
// A nil Gate falls back to IsAdmin.
func (g Gate) Require(ctx context.Context) error {
	check := g
	if check == nil {
		check = IsAdmin
	}
	if !check(ctx) {
		return ErrUnauthorized
	}
	return nil
}
