package model

import (
	"errors"
	"fmt"
)

// Local precondition errors. These are always reported before any remote
// call is made.
var (
	ErrUnauthenticated = errors.New("unauthenticated: login required")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrNoActiveProject = errors.New("no active project")
	ErrNotEntitled     = errors.New("not entitled: plan tier insufficient")
)

// Remote errors
var (
	ErrRemoteFailure = errors.New("remote failure")
	// ErrSuperseded marks a completion that arrived for a project which is
	// no longer active. Its result was discarded.
	ErrSuperseded = errors.New("superseded by a newer project")
)

// RemoteError is a call that reached (or tried to reach) the builder
// service. Status is 0 when no response was received.
type RemoteError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%s: service returned status %d: %s", e.Op, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%s: service returned status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": remote failure"
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRemoteFailure) match every RemoteError.
func (e *RemoteError) Is(target error) bool { return target == ErrRemoteFailure }

// Invalid wraps ErrInvalidRequest with a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
