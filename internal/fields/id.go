// Package fields provides reusable field types for entity representations that exchange opaque identifiers.
package fields

import (
	"github.com/mozilla-ai/bookstore/internal/errors"
	"github.com/mozilla-ai/bookstore/internal/token"
)

// IDField serializes an entity's own identifier as an opaque token.
// The field is read-only: identifiers are assigned by the store and never set by clients.
type IDField struct {
	name  string
	codec token.Codec
}

// NewIDField returns an IDField, reported in validation errors under name.
func NewIDField(name string, codec token.Codec) IDField {
	return IDField{
		name:  name,
		codec: codec,
	}
}

// Name returns the field name used in validation errors.
func (f IDField) Name() string {
	return f.name
}

// Encode returns the opaque token for id.
func (f IDField) Encode(id uint64) string {
	return f.codec.Encode(id)
}

// Decode returns the identifier encoded in tok.
// A malformed token is reported as a field error wrapping errors.ErrMalformedToken.
func (f IDField) Decode(tok string) (uint64, error) {
	id, err := f.codec.Decode(tok)
	if err != nil {
		return 0, errors.NewFieldError(f.name, tok, err)
	}
	return id, nil
}
