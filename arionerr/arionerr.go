// Package arionerr classifies errors raised by the storage engine into the
// kinds application code needs to switch on (retry, surface to a user,
// treat as a bug). The rest of the module wraps errors with fmt.Errorf's
// "%w", exactly the way the connector and schema packages this is adapted
// from already do it; this package adds only the thin Kind classification
// the application layer can switch on, layered over that wrapping.
package arionerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for application-level dispatch.
type Kind int

const (
	_ Kind = iota
	// KindBackend wraps a failed statement execution; Err carries the
	// driver message and Op names the offending query.
	KindBackend
	// KindConnectionLost reports that the adapter's connection is no
	// longer valid and must be discarded.
	KindConnectionLost
	// KindSchemaMismatch reports that migration could not converge.
	KindSchemaMismatch
	// KindValidation reports that a value failed field transform or
	// invariant checks.
	KindValidation
	// KindConstraint reports a unique or required-field violation
	// detected at the storage layer.
	KindConstraint
	// KindNotFound reports that a query found no rows when one was
	// required.
	KindNotFound
	// KindPermission reports that an operation is disallowed by the
	// scheme's access policy.
	KindPermission
	// KindLogic reports a programmer error: stack imbalance, unknown
	// field, a cancelled transaction reused.
	KindLogic
)

func (k Kind) String() string {
	switch k {
	case KindBackend:
		return "backend-error"
	case KindConnectionLost:
		return "connection-lost"
	case KindSchemaMismatch:
		return "schema-mismatch"
	case KindValidation:
		return "validation"
	case KindConstraint:
		return "constraint"
	case KindNotFound:
		return "not-found"
	case KindPermission:
		return "permission"
	case KindLogic:
		return "logic"
	default:
		return "unknown"
	}
}

// Error is the structured error type returned throughout the storage
// engine. Op names the operation that failed (a scheme name, a query
// description, a DDL statement), and Err is the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is (or wraps) an *Error whose Kind is kind. It
// exists because errors.Is compares values, so errors.Is(err,
// arionerr.KindValidation) would not match; Of returns the kind itself.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// Of returns the Kind attached to err if it is (or wraps) an *Error, and
// false otherwise.
func Of(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}
