package walk

import "errors"

// Operation failures shared by the owner and petsitter orchestrators. Every
// operation returns one of these rather than letting store errors leak
// untyped; transient store failures surface opaque and are never retried
// here — retry policy belongs to the caller.
var (
	ErrUnauthenticated   = errors.New("no caller identity")
	ErrNotFound          = errors.New("walk request not found")
	ErrForbidden         = errors.New("caller is not a party to this walk")
	ErrInvalidInput      = errors.New("invalid walk request parameters")
	ErrInvalidTransition = errors.New("operation not permitted in current status")
	ErrConflict          = errors.New("walk status changed concurrently")
	ErrActiveWalk        = errors.New("owner already has an active walk request")
)
