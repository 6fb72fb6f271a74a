// Package errors provides error handling for stubgen.
//
// It re-exports github.com/cockroachdb/errors so every package gets stack
// traces, wrapping and user-facing hints from one import:
//
//	if err := order.Linearize(mod); err != nil {
//	    return errors.Wrapf(err, "failed to order module %s", mod.Name)
//	}
//
//	return errors.WithHint(err, "check the snapshot for a missing base struct")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint       = crdb.WithHint
	WithHintf      = crdb.WithHintf
	WithDetail     = crdb.WithDetail
	WithDetailf    = crdb.WithDetailf
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// GetStack returns the reportable stack trace attached to an error, if any.
var GetStack = crdb.GetReportableStackTrace

// Sentinel errors shared across packages. Wrap them to add context and
// test for them with errors.Is.
var (
	// ErrNotFound indicates the requested struct, module or snapshot does not exist
	ErrNotFound = New("not found")

	// ErrInvalidSnapshot indicates reflection data that violates the entity model
	ErrInvalidSnapshot = New("invalid snapshot")

	// ErrDuplicateStruct indicates a struct identifier was pushed twice into one module
	ErrDuplicateStruct = New("duplicate struct")

	// ErrUnresolvableDependencies indicates a cyclic or dangling base/item reference
	ErrUnresolvableDependencies = New("unresolvable struct dependencies")

	// ErrStepFailed indicates a build pipeline step exited non-zero
	ErrStepFailed = New("build step failed")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsDependencyError checks if an error is or wraps ErrUnresolvableDependencies
func IsDependencyError(err error) bool {
	return err != nil && Is(err, ErrUnresolvableDependencies)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrNotFound)
}

// NewInvalidSnapshotError creates an invalid-snapshot error with a formatted message
func NewInvalidSnapshotError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidSnapshot)
}
