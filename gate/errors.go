package gate

import "errors"

// Sentinel errors returned by Gate.Authorize.
var (
	// ErrUnauthenticated means there is no resolvable user behind the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the user is known but lacks the permission.
	ErrForbidden = errors.New("forbidden")
)
