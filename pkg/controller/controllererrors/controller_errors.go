// Package controllererrors classifies the errors the Ephemeron reconciler can
// produce so that the reconcile loop, metrics, and logs can treat them
// consistently without each caller re-deriving what kind of failure it saw.
package controllererrors

import (
	"errors"
	"fmt"
)

// UserError wraps an error with a message safe to surface to the user that
// authored the Ephemeron, distinct from the internal error used for logs.
type UserError struct {
	Err         error
	UserMessage string
}

// for internal use
func (e UserError) Error() string {
	return e.Err.Error()
}

// for user facing messages
func (e UserError) UserError() string {
	return e.UserMessage
}

func (e UserError) Unwrap() error {
	return e.Err
}

func NewUserError(err error, msg string) UserError {
	return UserError{err, msg}
}

// Kind is the closed set of ways a reconcile error is handled.
type Kind int

const (
	// KindUnknown is any error that doesn't match a known kind; treated as transient.
	KindUnknown Kind = iota
	// KindValidation means the Ephemeron's spec can never succeed as written; don't requeue with backoff. The reconciler logs it and returns without error; no status condition is set for it.
	KindValidation
	// KindOwnershipConflict means a child resource exists and isn't owned by this Ephemeron; requeue with backoff, never adopt.
	KindOwnershipConflict
	// KindTransient means a retry is expected to help; requeue with backoff.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "Validation"
	case KindOwnershipConflict:
		return "OwnershipConflict"
	case KindTransient:
		return "Transient"
	default:
		return "Unknown"
	}
}

// ErrValidation, ErrOwnershipConflict, and ErrTransient are the sentinels
// each corresponding error type compares equal to under errors.Is, so a
// caller can test the kind of an error without an errors.As type switch:
//
//	if errors.Is(err, controllererrors.ErrTransient) { ... }
var (
	ErrValidation        = errors.New("ephemeron: validation error")
	ErrOwnershipConflict = errors.New("ephemeron: ownership conflict")
	ErrTransient         = errors.New("ephemeron: transient error")
)

// ValidationError indicates a value in EphemeronSpec is unusable; requeuing
// without a spec change will not help.
type ValidationError struct {
	Field string
	Err   error
}

func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// OwnershipConflictError indicates a child object of the given kind and name
// already exists and its controller owner reference doesn't point back to the
// Ephemeron being reconciled.
type OwnershipConflictError struct {
	Kind string
	Name string
}

func NewOwnershipConflictError(kind, name string) *OwnershipConflictError {
	return &OwnershipConflictError{Kind: kind, Name: name}
}

func (e *OwnershipConflictError) Error() string {
	return fmt.Sprintf("%s %q exists and is not owned by this Ephemeron", e.Kind, e.Name)
}

func (e *OwnershipConflictError) Is(target error) bool {
	return target == ErrOwnershipConflict
}

// TransientError wraps an error that is expected to clear on its own, such as
// an API server timeout or a momentarily unready dependency.
type TransientError struct {
	Err error
}

func NewTransientError(err error) *TransientError {
	return &TransientError{Err: err}
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

// Classify inspects err and returns the Kind that should drive requeue and
// condition-setting behavior. nil errors classify as KindUnknown; callers
// should check err != nil before calling Classify if that matters.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}

	var ownershipErr *OwnershipConflictError
	if errors.As(err, &ownershipErr) {
		return KindOwnershipConflict
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return KindTransient
	}

	return KindUnknown
}
