// Package lookup resolves path-supplied opaque tokens to stored entities.
package lookup

import (
	"context"
	"fmt"
	"reflect"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/errors"
	"github.com/mozilla-ai/bookstore/internal/token"
)

// Resolver turns the token from an item URL into the entity it identifies.
// NewResolver should be used to create instances of Resolver.
type Resolver[T any] struct {
	codec token.Codec
	store contracts.Querier[T]
}

// NewResolver returns a Resolver which looks entities up in store.
func NewResolver[T any](codec token.Codec, store contracts.Querier[T]) (*Resolver[T], error) {
	if store == nil || reflect.ValueOf(store).IsNil() {
		return nil, fmt.Errorf("resolver store cannot be nil")
	}

	return &Resolver[T]{
		codec: codec,
		store: store,
	}, nil
}

// Resolve decodes tok and returns the matching entity, restricted to scope.
//
// A token that cannot be decoded returns an error wrapping errors.ErrMalformedToken and the store is not queried.
// When nothing in scope matches, the error wraps errors.ErrNotFound.
// Store errors are returned unchanged.
func (r *Resolver[T]) Resolve(ctx context.Context, tok string, scope contracts.Filter) (T, error) {
	var zero T

	id, err := r.codec.Decode(tok)
	if err != nil {
		return zero, err
	}

	found, err := r.store.Query(ctx, scope.WithID(id))
	if err != nil {
		return zero, err
	}
	if len(found) == 0 {
		return zero, fmt.Errorf("%w: %q", errors.ErrNotFound, tok)
	}

	return found[0], nil
}

// ID decodes tok without consulting the store.
func (r *Resolver[T]) ID(tok string) (uint64, error) {
	return r.codec.Decode(tok)
}
