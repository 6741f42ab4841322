// Package errkind defines the closed taxonomy of error kinds surfaced by
// the planner and runner, and a typed wrapper that carries one.
package errkind

import (
	"errors"
	"fmt"
)

// Kind is one of a closed set of error categories. Kinds drive caller
// disposition (retry, surface, record-and-skip); they are not Go error
// types.
type Kind string

const (
	UserInput         Kind = "user_input"
	Cycle             Kind = "cycle"
	NotInitialized    Kind = "not_initialized"
	ManifestNotFound  Kind = "manifest_not_found"
	EventLogCorrupt   Kind = "event_log_corrupt"
	BlobMissing       Kind = "blob_missing"
	ProviderTransient Kind = "provider_transient"
	ProviderPermanent Kind = "provider_permanent"
	Cancelled         Kind = "cancelled"
	Concurrency       Kind = "concurrency"
)

// Error pairs a Kind with a message and optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err, or any error in its chain, carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
