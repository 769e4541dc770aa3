package fields

import (
	"context"
	stdErrors "errors"
	"fmt"
	"reflect"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/errors"
	"github.com/mozilla-ai/bookstore/internal/negotiate"
	"github.com/mozilla-ai/bookstore/internal/token"
)

// NestedIDKey is the key which carries the token when a relation is supplied as an object.
const NestedIDKey = "id"

// NestedSerializer renders the full representation of a related entity.
type NestedSerializer[T any] func(T) any

// Ref is a relation value decoded from a request body.
type Ref[T any] struct {
	// ID is the internal identifier of the related entity.
	ID uint64

	// Entity is the related entity, as resolved through the store.
	Entity T
}

// Relation represents a required to-one relationship.
// In responses it renders either the related entity's token or its nested representation,
// depending on the negotiated negotiate.Mode. In requests it accepts a bare token, or (for structured bodies)
// an object carrying the token under NestedIDKey.
// NewRelation should be used to create instances of Relation.
type Relation[T any] struct {
	name   string
	codec  token.Codec
	loader contracts.Getter[T]
	nested NestedSerializer[T]
}

// NewRelation returns a Relation reported in validation errors under name.
// loader resolves related identifiers through the store, nested renders the related entity in nested mode.
func NewRelation[T any](
	name string,
	codec token.Codec,
	loader contracts.Getter[T],
	nested NestedSerializer[T],
) (*Relation[T], error) {
	if name == "" {
		return nil, fmt.Errorf("relation name cannot be empty")
	}
	if loader == nil || reflect.ValueOf(loader).IsNil() {
		return nil, fmt.Errorf("relation '%s': loader cannot be nil", name)
	}
	if nested == nil {
		return nil, fmt.Errorf("relation '%s': nested serializer cannot be nil", name)
	}

	return &Relation[T]{
		name:   name,
		codec:  codec,
		loader: loader,
		nested: nested,
	}, nil
}

// Name returns the field name used in validation errors.
func (f *Relation[T]) Name() string {
	return f.name
}

// Encode renders the relation to the entity identified by id.
// In reference mode the store is never consulted.
// In nested mode the related entity is loaded, and any store error is returned unchanged.
func (f *Relation[T]) Encode(ctx context.Context, mode negotiate.Mode, id uint64) (any, error) {
	if mode != negotiate.ModeNested {
		return f.codec.Encode(id), nil
	}

	entity, err := f.loader.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return f.nested(entity), nil
}

// EncodeLoaded renders the relation using an entity the caller has already loaded.
func (f *Relation[T]) EncodeLoaded(mode negotiate.Mode, id uint64, entity T) any {
	if mode != negotiate.ModeNested {
		return f.codec.Encode(id)
	}
	return f.nested(entity)
}

// Decode validates a relation value from a request body and resolves it through the store.
// structured must report whether the request body is in the structured (json) format.
//
// Validation failures are returned as *errors.FieldError wrapping one of
// errors.ErrRelationRequired, errors.ErrIDMissing, errors.ErrMalformedToken or errors.ErrRelatedNotFound.
// Any other store error is returned unchanged.
func (f *Relation[T]) Decode(ctx context.Context, structured bool, value any) (Ref[T], error) {
	tok, err := f.token(structured, value)
	if err != nil {
		return Ref[T]{}, errors.NewFieldError(f.name, value, err)
	}

	id, err := f.codec.Decode(tok)
	if err != nil {
		return Ref[T]{}, errors.NewFieldError(f.name, value, err)
	}

	entity, err := f.loader.Get(ctx, id)
	if stdErrors.Is(err, errors.ErrNotFound) {
		return Ref[T]{}, errors.NewFieldError(f.name, value, fmt.Errorf("%w: %q", errors.ErrRelatedNotFound, tok))
	}
	if err != nil {
		return Ref[T]{}, err
	}

	return Ref[T]{ID: id, Entity: entity}, nil
}

// token extracts the token from a relation value.
func (f *Relation[T]) token(structured bool, value any) (string, error) {
	if value == nil {
		return "", errors.ErrRelationRequired
	}

	if structured {
		switch v := value.(type) {
		case string:
			return v, nil
		case map[string]any:
			raw, ok := v[NestedIDKey]
			if !ok {
				return "", fmt.Errorf("%w: object must contain an '%s' key", errors.ErrIDMissing, NestedIDKey)
			}
			tok, ok := raw.(string)
			if !ok {
				return "", fmt.Errorf("%w: '%s' must be a string", errors.ErrMalformedToken, NestedIDKey)
			}
			return tok, nil
		default:
			return "", fmt.Errorf("%w: expected an object with an '%s' key", errors.ErrIDMissing, NestedIDKey)
		}
	}

	tok, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected a token string", errors.ErrMalformedToken)
	}

	return tok, nil
}
