package services

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced by lifecycle operations. Handlers translate these to
// HTTP statuses at the boundary; nothing below the handler layer knows about
// status codes.

// ErrExpired is returned by token resolution once the validity window has
// passed. Distinct from not-found: the row still exists, the link is just dead.
var ErrExpired = errors.New("proposal link expired")

// ValidationError reports missing or out-of-range input.
type ValidationError struct {
	Violations map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Violations)
}

// NotFoundError reports an unresolved client, proposal, document or token.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// InvalidStateError reports a transition that is illegal in the proposal's
// current state.
type InvalidStateError struct {
	Action string
	State  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s proposal in state %s", e.Action, e.State)
}

// ConflictError reports a lost optimistic-concurrency race: the proposal's
// version moved underneath the caller between read and write.
type ConflictError struct {
	Expected int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("proposal version changed concurrently (expected %d)", e.Expected)
}

// RenderError wraps a document-generation failure.
type RenderError struct {
	Document string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s: %v", e.Document, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
