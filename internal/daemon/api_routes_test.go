package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/mozilla-ai/bookstore/internal/api"
	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/domain"
	"github.com/mozilla-ai/bookstore/internal/token"
)

const (
	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"
)

// countingBooks records how often the book store is read.
type countingBooks struct {
	contracts.BookStore
	reads atomic.Int32
}

func (c *countingBooks) Get(ctx context.Context, id uint64) (domain.Book, error) {
	c.reads.Add(1)
	return c.BookStore.Get(ctx, id)
}

func (c *countingBooks) Query(ctx context.Context, f contracts.Filter) ([]domain.Book, error) {
	c.reads.Add(1)
	return c.BookStore.Query(ctx, f)
}

// testAPI serves the full API handler over a fresh SQLite store.
type testAPI struct {
	handler http.Handler
	codec   token.Codec
	books   *countingBooks
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	s := testStore(t)

	tracker, err := NewHealthTracker(s)
	require.NoError(t, err)
	tracker.Update(domain.HealthStatusOK, nil)

	codec, err := token.NewCodec()
	require.NoError(t, err)

	books := &countingBooks{BookStore: s.Books()}

	deps, err := NewAPIDependencies(hclog.NewNullLogger(), codec, tracker, s.Authors(), books, "localhost:8085")
	require.NoError(t, err)

	server, err := NewAPIServer(deps)
	require.NoError(t, err)

	handler, prefix, err := server.Handler()
	require.NoError(t, err)
	require.Equal(t, "/api/v1", prefix)

	return &testAPI{
		handler: handler,
		codec:   codec,
		books:   books,
	}
}

// do sends a request, encoding body as JSON or CBOR according to contentType.
func (a *testAPI) do(
	t *testing.T,
	method string,
	target string,
	contentType string,
	accept string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		switch contentType {
		case contentTypeCBOR:
			payload, err = cbor.Marshal(body)
		default:
			payload, err = json.Marshal(body)
		}
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	return rec
}

func (a *testAPI) createAuthor(t *testing.T, name string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/v1/authors", contentTypeJSON, "", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decodeObject(t, rec)["id"].(string)
}

func (a *testAPI) createBook(t *testing.T, title string, authorTok string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/v1/books", contentTypeJSON, "", map[string]any{"title": title, "author": authorTok})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decodeObject(t, rec)["id"].(string)
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())

	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())

	return out
}

// requireFieldProblem asserts a 400 response reporting a problem with the named body field.
func requireFieldProblem(t *testing.T, rec *httptest.ResponseRecorder, field string) {
	t.Helper()

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	problem := decodeObject(t, rec)
	details, ok := problem["errors"].([]any)
	require.True(t, ok, "expected error details: %s", rec.Body.String())
	require.Len(t, details, 1)
	require.Equal(t, "body."+field, details[0].(map[string]any)["location"])
}

func TestAPI_AuthorLifecycle(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/authors", contentTypeJSON, "", map[string]any{"name": "Jane Doe"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeObject(t, rec)
	tok := created["id"].(string)
	require.Equal(t, "Jane Doe", created["name"])

	id, err := a.codec.Decode(tok)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	rec = a.do(t, http.MethodGet, "/api/v1/authors/"+tok, "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, tok, decodeObject(t, rec)["id"])

	rec = a.do(t, http.MethodPatch, "/api/v1/authors/"+tok, contentTypeJSON, "", map[string]any{"name": "Jane Q. Doe"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Jane Q. Doe", decodeObject(t, rec)["name"])

	rec = a.do(t, http.MethodPut, "/api/v1/authors/"+tok, contentTypeJSON, "", map[string]any{"id": tok, "name": "J. Doe"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "J. Doe", decodeObject(t, rec)["name"])

	rec = a.do(t, http.MethodGet, "/api/v1/authors", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeList(t, rec), 1)

	rec = a.do(t, http.MethodDelete, "/api/v1/authors/"+tok, "", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/authors/"+tok, "", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_CreateIgnoresSuppliedID(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/authors", contentTypeJSON, "", map[string]any{
		"id":   a.codec.Encode(500),
		"name": "Jane Doe",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, a.codec.Encode(1), decodeObject(t, rec)["id"])
}

func TestAPI_BookPathIdentifiers(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	authorTok := a.createAuthor(t, "Jane Doe")
	bookTok := a.createBook(t, "Dune", authorTok)

	tests := []struct {
		name           string
		tok            string
		expectedStatus int
		expectStoreHit bool
	}{
		{name: "known book", tok: bookTok, expectedStatus: http.StatusOK, expectStoreHit: true},
		{name: "unknown book", tok: a.codec.Encode(404), expectedStatus: http.StatusNotFound, expectStoreHit: true},
		{name: "beyond storable range", tok: a.codec.Encode(math.MaxUint64), expectedStatus: http.StatusNotFound, expectStoreHit: true},
		{name: "not base64", tok: "@@@@", expectedStatus: http.StatusBadRequest},
		{name: "raw identifier", tok: "1", expectedStatus: http.StatusBadRequest},
		{name: "not a decimal", tok: "YWJj", expectedStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Subtests share the read counter.
			before := a.books.reads.Load()

			rec := a.do(t, http.MethodGet, "/api/v1/books/"+tc.tok, "", "", nil)
			require.Equal(t, tc.expectedStatus, rec.Code, rec.Body.String())

			if !tc.expectStoreHit {
				require.Equal(t, before, a.books.reads.Load(), "malformed identifiers must not reach the store")
			}
		})
	}
}

func TestAPI_BookAuthorRendering(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	authorTok := a.createAuthor(t, "Jane Doe")
	bookTok := a.createBook(t, "Dune", authorTok)

	tests := []struct {
		name   string
		target string
		accept string
		nested bool
	}{
		{name: "no negotiation renders a reference", target: "/api/v1/books/" + bookTok},
		{name: "query override json", target: "/api/v1/books/" + bookTok + "?format=json", nested: true},
		{name: "path suffix json", target: "/api/v1/books/" + bookTok + ".json", nested: true},
		{name: "accept json", target: "/api/v1/books/" + bookTok, accept: contentTypeJSON, nested: true},
		{name: "wildcard accept renders a reference", target: "/api/v1/books/" + bookTok, accept: "*/*"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := a.do(t, http.MethodGet, tc.target, "", tc.accept, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			body := decodeObject(t, rec)
			require.Equal(t, bookTok, body["id"])
			require.Equal(t, "Dune", body["title"])

			if !tc.nested {
				require.Equal(t, authorTok, body["author"])
				return
			}

			author, ok := body["author"].(map[string]any)
			require.True(t, ok, "expected nested author, got %v", body["author"])
			require.Equal(t, authorTok, author["id"])
			require.Equal(t, "Jane Doe", author["name"])
		})
	}
}

func TestAPI_BookAuthorRendering_CBOR(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	authorTok := a.createAuthor(t, "Jane Doe")
	bookTok := a.createBook(t, "Dune", authorTok)

	for _, target := range []string{
		"/api/v1/books/" + bookTok + "?format=cbor",
		"/api/v1/books/" + bookTok + ".cbor",
	} {
		rec := a.do(t, http.MethodGet, target, "", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Header().Get("Content-Type"), contentTypeCBOR)

		var body map[string]any
		require.NoError(t, cbor.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, bookTok, body["id"])
		require.Equal(t, authorTok, body["author"])
	}

	rec := a.do(t, http.MethodGet, "/api/v1/books", "", contentTypeCBOR, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]any
	require.NoError(t, cbor.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, authorTok, list[0]["author"])
}

func TestAPI_CreateBook_AuthorInput(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	authorTok := a.createAuthor(t, "Jane Doe")
	missingTok := a.codec.Encode(404)

	tests := []struct {
		name        string
		contentType string
		author      any
		expectedErr bool
	}{
		{name: "json bare token", contentType: contentTypeJSON, author: authorTok},
		{name: "json nested object", contentType: contentTypeJSON, author: map[string]any{"id": authorTok}},
		{name: "json nested object with extra keys", contentType: contentTypeJSON, author: map[string]any{"id": authorTok, "name": "x"}},
		{name: "json empty object", contentType: contentTypeJSON, author: map[string]any{}, expectedErr: true},
		{name: "json list", contentType: contentTypeJSON, author: []any{authorTok}, expectedErr: true},
		{name: "json malformed token", contentType: contentTypeJSON, author: "@@@@", expectedErr: true},
		{name: "json unknown author", contentType: contentTypeJSON, author: missingTok, expectedErr: true},
		{name: "json unknown nested author", contentType: contentTypeJSON, author: map[string]any{"id": missingTok}, expectedErr: true},
		{name: "json missing author", contentType: contentTypeJSON, expectedErr: true},
		{name: "cbor bare token", contentType: contentTypeCBOR, author: authorTok},
		{name: "cbor object is not a token", contentType: contentTypeCBOR, author: map[string]any{"id": authorTok}, expectedErr: true},
		{name: "cbor unknown author", contentType: contentTypeCBOR, author: missingTok, expectedErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			body := map[string]any{"title": "Dune"}
			if tc.author != nil {
				body["author"] = tc.author
			}

			rec := a.do(t, http.MethodPost, "/api/v1/books", tc.contentType, contentTypeJSON, body)
			if tc.expectedErr {
				requireFieldProblem(t, rec, "author")
				return
			}

			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

			// The response was negotiated as json, so the author is nested.
			created := decodeObject(t, rec)
			require.Equal(t, authorTok, created["author"].(map[string]any)["id"])
		})
	}
}

func TestAPI_CreateBook_Validation(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	authorTok := a.createAuthor(t, "Jane Doe")

	rec := a.do(t, http.MethodPost, "/api/v1/books", contentTypeJSON, "", map[string]any{"title": "", "author": authorTok})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/v1/authors", contentTypeJSON, "", map[string]any{"name": ""})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestAPI_UpdateBook(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	janeTok := a.createAuthor(t, "Jane Doe")
	johnTok := a.createAuthor(t, "John Roe")
	bookTok := a.createBook(t, "Dune", janeTok)

	// PATCH without an author keeps the existing one.
	rec := a.do(t, http.MethodPatch, "/api/v1/books/"+bookTok, contentTypeJSON, "", map[string]any{"title": "Dune Messiah"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decodeObject(t, rec)
	require.Equal(t, "Dune Messiah", patched["title"])
	require.Equal(t, janeTok, patched["author"])

	// PATCH with a nested author changes it.
	rec = a.do(t, http.MethodPatch, "/api/v1/books/"+bookTok, contentTypeJSON, "", map[string]any{
		"author": map[string]any{"id": johnTok},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, johnTok, decodeObject(t, rec)["author"])

	// PUT replaces every writable field.
	rec = a.do(t, http.MethodPut, "/api/v1/books/"+bookTok, contentTypeJSON, "", map[string]any{
		"id":     bookTok,
		"title":  "Children of Dune",
		"author": janeTok,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	replaced := decodeObject(t, rec)
	require.Equal(t, "Children of Dune", replaced["title"])
	require.Equal(t, janeTok, replaced["author"])

	// PUT without an author is rejected.
	rec = a.do(t, http.MethodPut, "/api/v1/books/"+bookTok, contentTypeJSON, "", map[string]any{"title": "Dune"})
	requireFieldProblem(t, rec, "author")

	// An identifier in the body must name the book at the path.
	rec = a.do(t, http.MethodPut, "/api/v1/books/"+bookTok, contentTypeJSON, "", map[string]any{
		"id":     a.codec.Encode(999),
		"title":  "Dune",
		"author": janeTok,
	})
	requireFieldProblem(t, rec, "id")

	// Updating an unknown book is not found, regardless of the body.
	rec = a.do(t, http.MethodPatch, "/api/v1/books/"+a.codec.Encode(999), contentTypeJSON, "", map[string]any{"title": "x"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_DeleteBook(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	bookTok := a.createBook(t, "Dune", a.createAuthor(t, "Jane Doe"))

	rec := a.do(t, http.MethodDelete, "/api/v1/books/"+bookTok, "", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/books/"+bookTok, "", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/v1/books/"+bookTok, "", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_DeleteAuthorRemovesBooks(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	authorTok := a.createAuthor(t, "Jane Doe")
	bookTok := a.createBook(t, "Dune", authorTok)

	rec := a.do(t, http.MethodDelete, "/api/v1/authors/"+authorTok, "", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/books/"+bookTok, "", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ListBooks(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	janeTok := a.createAuthor(t, "Jane Doe")
	johnTok := a.createAuthor(t, "John Roe")
	a.createBook(t, "Dune", janeTok)
	a.createBook(t, "Dune Messiah", janeTok)
	a.createBook(t, "Solaris", johnTok)

	rec := a.do(t, http.MethodGet, "/api/v1/books?format=json", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeList(t, rec)
	require.Len(t, all, 3)
	for _, b := range all {
		author, ok := b["author"].(map[string]any)
		require.True(t, ok)
		require.Contains(t, []any{janeTok, johnTok}, author["id"])
	}

	rec = a.do(t, http.MethodGet, "/api/v1/books?author="+janeTok, "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byJane := decodeList(t, rec)
	require.Len(t, byJane, 2)
	for _, b := range byJane {
		require.Equal(t, janeTok, b["author"])
	}

	rec = a.do(t, http.MethodGet, "/api/v1/books?author="+a.codec.Encode(404), "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeList(t, rec))

	rec = a.do(t, http.MethodGet, "/api/v1/books?author=bad", "", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_AuthorBooks(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	janeTok := a.createAuthor(t, "Jane Doe")
	johnTok := a.createAuthor(t, "John Roe")
	duneTok := a.createBook(t, "Dune", janeTok)
	solarisTok := a.createBook(t, "Solaris", johnTok)

	rec := a.do(t, http.MethodGet, "/api/v1/authors/"+janeTok+"/books.json", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	books := decodeList(t, rec)
	require.Len(t, books, 1)
	require.Equal(t, duneTok, books[0]["id"])
	require.Equal(t, "Jane Doe", books[0]["author"].(map[string]any)["name"])

	rec = a.do(t, http.MethodGet, "/api/v1/authors/"+janeTok+"/books/"+duneTok, "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, janeTok, decodeObject(t, rec)["author"])

	// A book outside the author's scope is not found.
	rec = a.do(t, http.MethodGet, "/api/v1/authors/"+janeTok+"/books/"+solarisTok, "", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/authors/"+a.codec.Encode(404)+"/books", "", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ResponseHeaders(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	authorTok := a.createAuthor(t, "Jane Doe")
	bookTok := a.createBook(t, "Dune", authorTok)

	tests := []struct {
		name                   string
		method                 string
		target                 string
		body                   any
		expectedStatus         int
		expectedRepresentation string
		expectedErrorType      api.ErrorType
	}{
		{
			name:                   "book in json",
			method:                 http.MethodGet,
			target:                 "/api/v1/books/" + bookTok + ".json",
			expectedStatus:         http.StatusOK,
			expectedRepresentation: "nested",
		},
		{
			name:                   "book list without negotiation",
			method:                 http.MethodGet,
			target:                 "/api/v1/books",
			expectedStatus:         http.StatusOK,
			expectedRepresentation: "reference",
		},
		{
			name:           "author carries no relations",
			method:         http.MethodGet,
			target:         "/api/v1/authors/" + authorTok,
			expectedStatus: http.StatusOK,
		},
		{
			name:              "malformed identifier",
			method:            http.MethodGet,
			target:            "/api/v1/books/@@@@",
			expectedStatus:    http.StatusBadRequest,
			expectedErrorType: api.MalformedIdentifier,
		},
		{
			name:              "unknown book",
			method:            http.MethodGet,
			target:            "/api/v1/books/" + a.codec.Encode(404),
			expectedStatus:    http.StatusNotFound,
			expectedErrorType: api.ResourceNotFound,
		},
		{
			name:              "unknown related author",
			method:            http.MethodPost,
			target:            "/api/v1/books",
			body:              map[string]any{"title": "Dune", "author": a.codec.Encode(404)},
			expectedStatus:    http.StatusBadRequest,
			expectedErrorType: api.RelatedNotFound,
		},
		{
			name:              "missing related author",
			method:            http.MethodPost,
			target:            "/api/v1/books",
			body:              map[string]any{"title": "Dune"},
			expectedStatus:    http.StatusBadRequest,
			expectedErrorType: api.RelationRequired,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			contentType := ""
			if tc.body != nil {
				contentType = contentTypeJSON
			}

			rec := a.do(t, tc.method, tc.target, contentType, "", tc.body)
			require.Equal(t, tc.expectedStatus, rec.Code, rec.Body.String())
			require.Equal(t, tc.expectedRepresentation, rec.Header().Get(api.HeaderRepresentation))
			require.Equal(t, string(tc.expectedErrorType), rec.Header().Get(api.HeaderErrorType))
		})
	}
}

func TestAPI_Health(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/health", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "ok", decodeObject(t, rec)["status"])
}

func TestAPI_OpenAPIDocument(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/openapi.json", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := decodeObject(t, rec)
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, paths, "/api/v1/books/{id}")
	require.Contains(t, paths, "/api/v1/authors/{id}/books/{book}")
}
