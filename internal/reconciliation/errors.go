package reconciliation

import "errors"

// Lifecycle violations and bad input are business errors, not transient
// faults: callers must surface them to the user instead of retrying.
var (
	// ErrSessionClosed rejects any mutation of a CLOSED session.
	ErrSessionClosed = errors.New("session already closed, cannot modify")

	// ErrSessionCancelled rejects operations on a CANCELLED session. The
	// one-session-per-date constraint is not relaxed by cancellation: a
	// cancelled date stays blocked to preserve the audit trail.
	ErrSessionCancelled = errors.New("session cancelled for this date")

	// ErrInvalidInput rejects malformed input before any computation.
	ErrInvalidInput = errors.New("invalid input")
)
