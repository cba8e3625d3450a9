package toolintent

import (
	"errors"
	"fmt"
)

// #region errors

// ErrLiveRunDenied marks an explicit live-run override from an author who is
// not authorized to lift the dry-run posture.
var ErrLiveRunDenied = errors.New("toolintent: live run not authorized")

// ValidationError marks a tool request that is malformed or not permitted in
// the requested form. The runtime answers these with guidance, not a failure.
type ValidationError struct {
	Request string
	Reason  string
	err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid tool request %q: %s", e.Request, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// PermissionError marks a parsed command whose author lacks the required
// permission flag.
type PermissionError struct {
	Command  string
	Required string
	AuthorID string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("command %s requires %s (author %s)", e.Command, e.Required, e.AuthorID)
}

// #endregion errors
