package core

import (
	"errors"
	"fmt"
)

// Error kinds for the whole module. The store and catalog raise these; the
// HTTP layer maps each kind to exactly one response shape and nothing else
// crosses the wire.

// ErrNotFound marks a missing game or a player with no entry.
var ErrNotFound = errors.New("not found")

// ErrForbidden marks a game that exists but is not accepting submissions.
var ErrForbidden = errors.New("game is not active")

// ValidationError reports malformed user input. Not retryable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientError wraps a backing-store failure that is safe to retry with
// the same request: upsert-if-better is idempotent.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError for the given operation.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// InvariantViolation reports a broken internal post-condition, such as a
// player missing immediately after a successful upsert. It is a bug report,
// never a normal outcome.
type InvariantViolation struct {
	Op     string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s: invariant violated: %s", e.Op, e.Detail)
}

// IsInvariantViolation reports whether err is an InvariantViolation.
func IsInvariantViolation(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}
