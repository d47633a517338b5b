// Package apperror defines the closed set of error kinds the API can surface.
// Handlers convert every internal failure into one of these at the boundary;
// anything else is logged server-side and mapped to a generic 500.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind enumerates the error categories of the API.
type Kind int

const (
	// BadRequest represents malformed input, e.g. a missing credential.
	BadRequest Kind = iota
	// Unauthenticated represents a missing, expired or invalid token.
	Unauthenticated
	// NotFound represents a referenced resource that does not exist.
	NotFound
	// StorageError represents a database failure.
	StorageError
	// UpstreamError represents a third-party service failure.
	UpstreamError
)

// AppError carries a kind, a client-safe message and an optional wrapped cause.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the kind to its HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case BadRequest:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// New creates an AppError without an underlying cause.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap creates an AppError around an underlying cause.
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// AsAppError extracts an AppError from the chain, or wraps err as StorageError
// when it is not one. Used by handlers to normalize repository failures.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(StorageError, "internal error", err)
}
