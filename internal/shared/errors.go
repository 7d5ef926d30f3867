package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrNotEditable occurs when a mutation targets a locked document.
	ErrNotEditable = errors.New("document not editable")
	// ErrActionInFlight occurs when a workflow call is already running.
	ErrActionInFlight = errors.New("another workflow action is in flight")
)
