// Package gate provides a small role/permission authorization library.
// A Gate resolves a user to a Profile (a named role carrying a set of
// permission codes, optionally flagged as bypass) and answers allow/deny
// questions for permission codes. It has no dependency on domain models and
// uses generics for the user/subject type:
//   - Gate[uint] for simple user ID based auth
//   - Gate[*Claims] for token-claims based auth
package gate

import "context"

// Permission is a flat permission code, e.g. "create_comment".
type Permission string

// Gate answers authorization questions by resolving users to profiles.
// U is the user/subject type (must be comparable for zero-value check).
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
}

// New creates a Gate backed by the given profile resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Authorize checks whether user holds the permission and returns a typed
// error when not:
//   - ErrUnauthenticated for a zero-value user or an unresolvable profile
//   - nil for a bypass profile, regardless of the requested code
//   - ErrForbidden when the code is not in the profile's permission set
func (g *Gate[U]) Authorize(ctx context.Context, user U, code Permission) error {
	var zero U
	if user == zero {
		return ErrUnauthenticated
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return ErrUnauthenticated
	}
	if profile.Bypass() {
		return nil
	}
	if !profile.HasPermission(code) {
		return ErrForbidden
	}
	return nil
}

// Allows is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Allows(ctx context.Context, user U, code Permission) bool {
	return g.Authorize(ctx, user, code) == nil
}

// Profile returns the resolved profile for a user, or nil when the user is
// zero-valued or has no profile. Useful for callers that need the role name
// or bypass flag directly (e.g. ownership checks).
func (g *Gate[U]) Profile(ctx context.Context, user U) Profile {
	var zero U
	if user == zero {
		return nil
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return nil
	}
	return profile
}
