package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mozilla-ai/bookstore/internal/negotiate"
)

// HeaderRepresentation is the HTTP header which reports how relations are rendered in a response body,
// either 'nested' or 'reference'.
const HeaderRepresentation = "Bookstore-Representation"

// Transformers returns all response transformers used by the API.
// Transformers modify responses after handlers execute but before serialization.
// They are registered globally in the Huma config and run on all API responses.
//
// IMPORTANT: Order matters. Transformers execute sequentially, with each transformer's
// output becoming the next transformer's input. If you need to compose transformations,
// ensure they are ordered correctly in the returned slice.
//
// Current transformers:
//   - representationTransformer: Reports the negotiated relation rendering mode on successful responses.
func Transformers() []huma.Transformer {
	return []huma.Transformer{
		representationTransformer,
	}
}

// representationTransformer sets HeaderRepresentation on successful responses which carry a book.
// The body is passed through unchanged.
func representationTransformer(ctx huma.Context, status string, v any) (any, error) {
	if !strings.HasPrefix(status, "2") {
		return v, nil
	}

	switch v.(type) {
	case Book, *Book, []Book:
		ctx.SetHeader(HeaderRepresentation, negotiate.FromContext(ctx.Context()).Mode().String())
	}

	return v, nil
}
