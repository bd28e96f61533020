// Package apperror defines the error taxonomy shared by the topic core and
// its HTTP surface.
//
// Handlers map these conditions to status codes; the service layer and
// stores only ever return one of the four sentinels (possibly wrapped in an
// *AppError carrying a message and cause). Nothing below this package
// swallows an error except best-effort blob deletion, which is logged and
// dropped by design of the media helper.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no identity is present for an operation that
	// requires one. Operations never degrade to an empty result instead.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound means the referenced topic or post does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied means the identity lacks the role the operation
	// requires.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUpstream wraps failures reported by the document store, blob store,
	// or identity provider.
	ErrUpstream = errors.New("upstream failure")
)

// AppError pairs a sentinel with a human-readable message and the original
// cause. It unwraps to the sentinel so errors.Is works against the taxonomy,
// while the cause stays reachable through the message.
type AppError struct {
	Err     error // one of the sentinels above
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Unauthenticated builds an ErrUnauthenticated condition.
func Unauthenticated() *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: "user not authenticated"}
}

// NotFound builds an ErrNotFound condition for the named resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
	}
}

// PermissionDenied builds an ErrPermissionDenied condition.
func PermissionDenied(msg string) *AppError {
	return &AppError{Err: ErrPermissionDenied, Message: msg}
}

// Upstream wraps a provider error, keeping the cause attached.
func Upstream(msg string, cause error) *AppError {
	return &AppError{Err: ErrUpstream, Message: msg, Cause: cause}
}
