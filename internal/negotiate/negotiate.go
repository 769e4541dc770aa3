// Package negotiate decides, once per request, how relations are represented.
//
// A relation is rendered in nested form only when the response format explicitly negotiated for the request is
// json; in every other case (no explicit format, or another format such as cbor) it is rendered as a reference.
// Independently, request bodies sent with a structured (json) content type may carry a relation as an object
// with an 'id' key, while any other content type carries the bare token.
package negotiate

import (
	"context"
	"mime"
	"strings"
)

// Mode is the representation chosen for a relation in a response.
type Mode int

const (
	// ModeReference renders a relation as the related entity's opaque token.
	ModeReference Mode = iota

	// ModeNested renders a relation as the related entity's full representation.
	ModeNested
)

const (
	// FormatJSON is the structured format under which relations expand to nested objects.
	FormatJSON = "json"

	// FormatCBOR is the binary format; relations stay in reference form.
	FormatCBOR = "cbor"
)

// DefaultOverrideKey is the query string key which overrides response format negotiation.
const DefaultOverrideKey = "format"

// mediaTypes maps known formats to the media type used to render them.
var mediaTypes = map[string]string{
	FormatJSON: "application/json",
	FormatCBOR: "application/cbor",
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeNested:
		return "nested"
	default:
		return "reference"
	}
}

// Request holds the negotiation inputs for a single request.
// The zero value means 'nothing negotiated', which yields ModeReference and unstructured input.
type Request struct {
	// Format is the explicitly negotiated response format (e.g. 'json'), or empty when none was negotiated.
	Format string

	// ContentType is the request's Content-Type header.
	ContentType string
}

// Mode returns the relation representation for responses to this request.
func (r Request) Mode() Mode {
	if r.Format == FormatJSON {
		return ModeNested
	}
	return ModeReference
}

// StructuredInput reports whether the request body is in the structured (json) format.
func (r Request) StructuredInput() bool {
	return IsStructured(r.ContentType)
}

// IsStructured reports whether contentType denotes json (including '+json' suffixed media types).
func IsStructured(contentType string) bool {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// MediaType returns the media type used to render format, if the format is known.
func MediaType(format string) (string, bool) {
	mt, ok := mediaTypes[format]
	return mt, ok
}

type requestKey struct{}

// WithRequest returns a copy of ctx carrying the negotiation inputs.
func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// FromContext returns the negotiation inputs attached to ctx by Middleware.
// The zero Request is returned when nothing was attached.
func FromContext(ctx context.Context) Request {
	r, _ := ctx.Value(requestKey{}).(Request)
	return r
}
