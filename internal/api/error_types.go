package api

import (
	stdErrors "errors"

	"github.com/mozilla-ai/bookstore/internal/errors"
)

// ErrorType represents the classification of errors returned via HTTP headers.
type ErrorType string

// HeaderErrorType is the HTTP header key which should be used to convey API error types.
const HeaderErrorType = "Bookstore-Error-Type"

const (
	// MalformedIdentifier indicates an opaque identifier could not be decoded.
	MalformedIdentifier ErrorType = "malformed-identifier"

	// IdentifierMissing indicates a nested relation object did not carry an identifier.
	IdentifierMissing ErrorType = "identifier-missing"

	// RelationRequired indicates a required relation was null or absent.
	RelationRequired ErrorType = "relation-required"

	// RelatedNotFound indicates a relation named an entity which does not exist.
	RelatedNotFound ErrorType = "related-not-found"

	// ResourceNotFound indicates the entity addressed by the request path does not exist.
	ResourceNotFound ErrorType = "not-found"

	// InvalidRequest indicates any other client error.
	InvalidRequest ErrorType = "invalid-request"
)

// ErrorTypeOf classifies err, returning false when it is not a known domain error.
func ErrorTypeOf(err error) (ErrorType, bool) {
	switch {
	case stdErrors.Is(err, errors.ErrMalformedToken):
		return MalformedIdentifier, true
	case stdErrors.Is(err, errors.ErrIDMissing):
		return IdentifierMissing, true
	case stdErrors.Is(err, errors.ErrRelationRequired):
		return RelationRequired, true
	case stdErrors.Is(err, errors.ErrRelatedNotFound):
		return RelatedNotFound, true
	case stdErrors.Is(err, errors.ErrNotFound):
		return ResourceNotFound, true
	case stdErrors.Is(err, errors.ErrBadRequest):
		return InvalidRequest, true
	default:
		return "", false
	}
}
