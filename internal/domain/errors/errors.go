package errors

import (
	"errors"
	"fmt"
)

// Authentication failures.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionActive      = errors.New("session already active")
	ErrNoSession          = errors.New("no active session")
)

// Workflow failures. They are resolved locally and never reach the backend.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrValidation        = errors.New("validation failed")
)

// Validation failures, each one matches ErrValidation.
var (
	ErrMissingDeliveryDate = fmt.Errorf("%w: missing or past delivery date", ErrValidation)
	ErrInvalidTarget       = fmt.Errorf("%w: invalid target state", ErrValidation)
	ErrInvalidQuantity     = fmt.Errorf("%w: quantity must be positive", ErrValidation)
	ErrInsufficientStock   = fmt.Errorf("%w: insufficient stock", ErrValidation)
	ErrUnknownEntity       = fmt.Errorf("%w: unknown entity", ErrValidation)
	ErrUnapprovedOwner     = fmt.Errorf("%w: product owner is not approved", ErrValidation)
	ErrInvalidPayload      = fmt.Errorf("%w: invalid payload", ErrValidation)
)

// Backend failures.
var (
	ErrRejected    = errors.New("rejected by backend")
	ErrUnreachable = errors.New("backend unreachable")
)

// ErrNotFound is returned by session repositories when nothing is persisted.
var ErrNotFound = errors.New("not found")

// AuthError reports a login or session failure.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// WorkflowError reports a command refused by the guard or the workflow engine.
type WorkflowError struct {
	Entity string
	ID     int64
	From   string
	To     string
	Err    error
}

func (e *WorkflowError) Error() string {
	if e.From != "" || e.To != "" {
		return fmt.Sprintf("%s %d %s -> %s: %v", e.Entity, e.ID, e.From, e.To, e.Err)
	}
	if e.ID != 0 {
		return fmt.Sprintf("%s %d: %v", e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Entity, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// SyncError reports a failed round trip to the backend.
type SyncError struct {
	Op     string
	Status int
	Err    error
}

func (e *SyncError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("sync %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Rejected builds a SyncError for a backend error status.
func Rejected(op string, status int) error {
	return &SyncError{Op: op, Status: status, Err: ErrRejected}
}

// Unreachable builds a SyncError for a transport failure.
func Unreachable(op string, cause error) error {
	return &SyncError{Op: op, Err: fmt.Errorf("%w: %v", ErrUnreachable, cause)}
}
