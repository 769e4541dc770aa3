// Package errors defines domain-level errors used throughout the application.
// These errors represent input and lookup failures and are mapped to appropriate HTTP status codes at the API boundary.
//
// NOTE: Important for developers
// When adding a new error here, you MUST consider how it should be handled when returned from API endpoints.
//
// Unmapped errors will default to HTTP 500 Internal Server Error.
//
// Don't forget to:
// 1. Add your error to mapError (internal/daemon/api_server.go)
// 2. Add a test case to TestMapError (internal/daemon/api_server_test.go)
// 3. Consider if existing handler tests need updates
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRequest indicates that the client provided invalid input or made a malformed request.
	// This typically results from validation failures or incorrect request parameters.
	// Recommended to map to HTTP 400 Bad Request.
	ErrBadRequest = errors.New("bad request")

	// ErrMalformedToken indicates that an opaque identifier could not be decoded.
	// The token is either not URL-safe base64 text, or does not decode to a canonical non-negative integer.
	// Recommended to map to HTTP 400 Bad Request.
	ErrMalformedToken = errors.New("malformed identifier")

	// ErrIDMissing indicates that a nested relation value in a structured request body has no 'id' key,
	// or is not a key-value structure at all.
	// Recommended to map to HTTP 400 Bad Request.
	ErrIDMissing = errors.New("id missing")

	// ErrRelatedNotFound indicates that a relation value decoded to an identifier which does not exist in the store.
	// This is a validation failure reported against the relation field, not a missing path resource.
	// Recommended to map to HTTP 400 Bad Request.
	ErrRelatedNotFound = errors.New("related object does not exist")

	// ErrRelationRequired indicates that a required relation was null or absent.
	// Recommended to map to HTTP 400 Bad Request.
	ErrRelationRequired = errors.New("relation is required")

	// ErrNotFound indicates that the entity addressed by a path identifier does not exist.
	// Recommended to map to HTTP 404 Not Found.
	ErrNotFound = errors.New("not found")
)

// FieldError attaches a request body field to a validation failure.
// It unwraps to the underlying error so callers can still match sentinels with errors.Is.
type FieldError struct {
	// Field is the name of the body field, e.g. 'author'.
	Field string

	// Value is the offending value as supplied by the client, when available.
	Value any

	// Err is the underlying (usually sentinel) error.
	Err error
}

// NewFieldError returns a FieldError for the named field.
func NewFieldError(field string, value any, err error) *FieldError {
	return &FieldError{
		Field: field,
		Value: value,
		Err:   err,
	}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
