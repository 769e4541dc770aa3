// Package token converts store-assigned numeric identifiers to opaque tokens and back.
//
// A token is the URL-safe base64 (RFC 4648 §5) encoding of the identifier's decimal text,
// so it can be placed in a URL path segment or a JSON string without further escaping.
//
// NOTE: a token is a reversible disguise, not a cryptographic commitment.
// It deters casual enumeration of sequential identifiers, but anyone can decode it,
// and it carries no confidentiality or tamper-detection guarantee.
package token

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/mozilla-ai/bookstore/internal/errors"
)

// Codec encodes and decodes opaque identifier tokens.
// A Codec is immutable and safe for concurrent use.
// NewCodec should be used to create instances of Codec.
type Codec struct {
	enc *base64.Encoding
}

// NewCodec creates a Codec with optional configuration applied on top of the defaults.
func NewCodec(opt ...Option) (Codec, error) {
	opts, err := NewOptions(opt...)
	if err != nil {
		return Codec{}, err
	}

	enc := base64.URLEncoding
	if !opts.Padding {
		enc = base64.RawURLEncoding
	}

	return Codec{enc: enc.Strict()}, nil
}

// Encode returns the opaque token for id.
func (c Codec) Encode(id uint64) string {
	return c.encoding().EncodeToString([]byte(strconv.FormatUint(id, 10)))
}

// Decode returns the identifier that tok was produced from.
// It fails with errors.ErrMalformedToken when tok is not valid base64-URL text for this codec,
// or when the decoded text is not a canonical non-negative decimal integer.
// A well-formed token for an identifier that does not exist is not an error here.
func (c Codec) Decode(tok string) (uint64, error) {
	if tok == "" {
		return 0, fmt.Errorf("%w: empty token", errors.ErrMalformedToken)
	}

	// The base64 decoder silently skips CR and LF, which are not part of the alphabet.
	if strings.ContainsAny(tok, "\r\n") {
		return 0, fmt.Errorf("%w: %q contains line breaks", errors.ErrMalformedToken, tok)
	}

	raw, err := c.encoding().DecodeString(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", errors.ErrMalformedToken, tok, err)
	}

	text := string(raw)
	if !isCanonicalDecimal(text) {
		return 0, fmt.Errorf("%w: %q does not encode a decimal identifier", errors.ErrMalformedToken, tok)
	}

	id, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", errors.ErrMalformedToken, tok, err)
	}

	return id, nil
}

// encoding allows the zero value Codec to behave like the default (padded) codec.
func (c Codec) encoding() *base64.Encoding {
	if c.enc == nil {
		return base64.URLEncoding.Strict()
	}
	return c.enc
}

// isCanonicalDecimal reports whether s is the form strconv.FormatUint would produce: ASCII digits, no sign,
// and no leading zero unless s is exactly "0".
func isCanonicalDecimal(s string) bool {
	if s == "" {
		return false
	}
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
