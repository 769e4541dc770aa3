package negotiate

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2/negotiation"
)

// Middleware returns an HTTP middleware that determines the negotiated response format and request content type,
// and attaches them to the request context (see FromContext).
//
// The format is taken from, in priority order:
//  1. the overrideKey query string parameter (e.g. '?format=json'), when overrideKey is not empty
//  2. a format suffix on the final path segment (e.g. '/books/MQ==.json'), which is stripped before routing
//  3. an Accept header naming a supported media type explicitly (wildcards do not count)
//
// Suffixes are only recognized on paths below suffixScope (e.g. '/api/v1'), or on every path when it is empty.
//
// When a known format is negotiated the Accept header is rewritten to its media type,
// so the response is rendered in the same format that decided the representation.
func Middleware(overrideKey string, suffixScope string) func(http.Handler) http.Handler {
	overrideKey = strings.TrimSpace(overrideKey)
	suffixScope = strings.TrimSuffix(suffixScope, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var format string

			if overrideKey != "" {
				format = normalizeFormat(r.URL.Query().Get(overrideKey))
			}

			var (
				path, suffix string
				hasSuffix    bool
			)
			if inScope(r.URL.Path, suffixScope) {
				path, suffix, hasSuffix = splitFormatSuffix(r.URL.Path)
			}
			if format == "" && hasSuffix {
				format = suffix
			}

			if format == "" {
				format = formatFromAccept(r.Header.Get("Accept"))
			}

			req := Request{
				Format:      format,
				ContentType: r.Header.Get("Content-Type"),
			}

			r = r.Clone(WithRequest(r.Context(), req))

			if hasSuffix {
				r.URL.Path = path
				if r.URL.RawPath != "" {
					r.URL.RawPath = strings.TrimSuffix(r.URL.RawPath, "."+suffix)
				}
			}

			if mt, ok := MediaType(format); ok {
				r.Header.Set("Accept", mt)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func normalizeFormat(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func inScope(path string, scope string) bool {
	return scope == "" || strings.HasPrefix(path, scope+"/")
}

// splitFormatSuffix strips a known format suffix from the last segment of path.
func splitFormatSuffix(path string) (string, string, bool) {
	lastSlash := strings.LastIndexByte(path, '/')
	segment := path[lastSlash+1:]

	dot := strings.LastIndexByte(segment, '.')
	if dot <= 0 {
		return path, "", false
	}

	suffix := normalizeFormat(segment[dot+1:])
	if _, ok := mediaTypes[suffix]; !ok {
		return path, "", false
	}

	return path[:lastSlash+1+dot], suffix, true
}

// formatFromAccept returns the format for the media type explicitly requested in the Accept header, if any.
func formatFromAccept(accept string) string {
	if strings.TrimSpace(accept) == "" {
		return ""
	}

	allowed := make([]string, 0, len(mediaTypes))
	byMediaType := make(map[string]string, len(mediaTypes))
	for _, f := range []string{FormatJSON, FormatCBOR} {
		allowed = append(allowed, mediaTypes[f])
		byMediaType[mediaTypes[f]] = f
	}

	selected := negotiation.SelectQValueFast(accept, allowed)
	if selected == "" || !strings.Contains(strings.ToLower(accept), selected) {
		// Nothing supported was named, or only a wildcard matched.
		return ""
	}

	return byMediaType[selected]
}
