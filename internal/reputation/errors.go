package reputation

import "errors"

var (
	// ErrUnknownAction is returned by AwardCredit for an action kind that is
	// not in the points table. This is a programming error at the call site,
	// not a user-facing condition.
	ErrUnknownAction = errors.New("unknown credit action")

	// ErrUserNotFound is returned when the target user does not exist.
	ErrUserNotFound = errors.New("user not found")
)
