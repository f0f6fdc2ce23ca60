package policy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/auth"
	"github.com/mahaoyang/nuxtcom/gate"
	"github.com/mahaoyang/nuxtcom/httpx"
)

// AuthGate is the central authorization checkpoint: session user in,
// allow/deny out. Profile lookups go through a TTL cache; invalidate a user
// on role change (the promotion engine hook does this).
type AuthGate struct {
	Gate  *gate.Gate[uint]
	Cache *gate.CachedResolver[uint]

	db *gorm.DB
}

// NewAuthGate creates a fully configured authorization gate.
//   - db: GORM database connection for role/permission lookups
//   - cacheTTL: how long to cache user profiles (e.g. 5*time.Minute)
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uint](NewDBProfileResolver(db), cacheTTL)
	return &AuthGate{
		Gate:  gate.New[uint](cached),
		Cache: cached,
		db:    db,
	}
}

// Authorize checks whether the session user behind ctx holds the permission
// code. Returns gate.ErrUnauthenticated when there is no session user,
// gate.ErrForbidden when the role lacks the code, nil when allowed
// (including the universal-bypass role).
func (ag *AuthGate) Authorize(ctx context.Context, code gate.Permission) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthenticated
	}
	return ag.Gate.Authorize(ctx, userID, code)
}

// Can is a convenience wrapper returning bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, code gate.Permission) bool {
	return ag.Authorize(ctx, code) == nil
}

// InvalidateUser clears the profile cache for one user.
// Call this when a user's role changes.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.Cache.Invalidate(userID)
}

// InvalidateAll clears the entire profile cache.
// Call this when the role/permission catalog is modified.
func (ag *AuthGate) InvalidateAll() {
	ag.Cache.InvalidateAll()
}

// RequireAuthenticated returns middleware that only checks for a session
// user. It is the weaker precondition used before ownership checks.
func (ag *AuthGate) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserIDFromContext(r.Context()); !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", "Please log in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission returns middleware that aborts the request unless the
// session user holds the permission code: 401 without a session, 403 when
// the role lacks the code.
func (ag *AuthGate) RequirePermission(code gate.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch err := ag.Authorize(r.Context(), code); err {
			case nil:
				next.ServeHTTP(w, r)
			case gate.ErrUnauthenticated:
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", "Please log in")
			default:
				httpx.JSONError(w, http.StatusForbidden, "forbidden",
					fmt.Sprintf("Missing permission: %s", code))
			}
		})
	}
}
