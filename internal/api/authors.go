package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/domain"
	"github.com/mozilla-ai/bookstore/internal/errors"
	"github.com/mozilla-ai/bookstore/internal/fields"
	"github.com/mozilla-ai/bookstore/internal/negotiate"
)

// Author is the API representation of an author.
type Author struct {
	ID   string `doc:"Opaque author identifier" example:"MQ=="     json:"id"   readOnly:"true"`
	Name string `doc:"Name of the author"       example:"Jane Doe" json:"name"`
}

// AuthorBody is the request body used to create or replace an author.
type AuthorBody struct {
	ID   string `doc:"Opaque author identifier, ignored on create and must match the path otherwise" example:"MQ=="     json:"id,omitempty" readOnly:"true"`
	Name string `doc:"Name of the author"                                                            example:"Jane Doe" json:"name"         minLength:"1"`
}

// AuthorPatchBody is the request body used to partially update an author.
// Absent fields are left unchanged.
type AuthorPatchBody struct {
	ID   string  `doc:"Opaque author identifier, must match the path" example:"MQ=="     json:"id,omitempty"   readOnly:"true"`
	Name *string `doc:"Name of the author"                            example:"Jane Doe" json:"name,omitempty" minLength:"1"`
}

// AuthorRequest represents the incoming API request for a single author.
type AuthorRequest struct {
	ID string `doc:"Opaque author identifier" example:"MQ==" path:"id"`
}

// AuthorCreateRequest represents the incoming API request to create an author.
type AuthorCreateRequest struct {
	Body AuthorBody
}

// AuthorReplaceRequest represents the incoming API request to replace an author.
type AuthorReplaceRequest struct {
	ID   string `doc:"Opaque author identifier" example:"MQ==" path:"id"`
	Body AuthorBody
}

// AuthorUpdateRequest represents the incoming API request to partially update an author.
type AuthorUpdateRequest struct {
	ID   string `doc:"Opaque author identifier" example:"MQ==" path:"id"`
	Body AuthorPatchBody
}

// AuthorBookRequest represents the incoming API request for a single book by a specific author.
type AuthorBookRequest struct {
	ID   string `doc:"Opaque author identifier" example:"MQ==" path:"id"`
	Book string `doc:"Opaque book identifier"   example:"Mg==" path:"book"`
}

// AuthorResponse represents the wrapped API response for an Author.
type AuthorResponse struct {
	Body Author
}

// AuthorsResponse represents the wrapped API response for a list of authors.
type AuthorsResponse struct {
	Body []Author
}

// registerAuthorRoutes sets up author-related API endpoints.
func registerAuthorRoutes(routerAPI huma.API, res *resources, apiPathPrefix string) {
	authorsAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Authors"}

	// Add route at the root of the group (no path specified).
	huma.Register(
		authorsAPI,
		huma.Operation{
			OperationID: "listAuthors",
			Method:      http.MethodGet,
			Summary:     "List all authors",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*AuthorsResponse, error) {
			return res.handleListAuthors(ctx)
		},
	)

	huma.Register(
		authorsAPI,
		huma.Operation{
			OperationID:   "createAuthor",
			Method:        http.MethodPost,
			Summary:       "Create an author",
			Tags:          tags,
			DefaultStatus: http.StatusCreated,
		},
		func(ctx context.Context, input *AuthorCreateRequest) (*AuthorResponse, error) {
			return res.handleCreateAuthor(ctx, input.Body)
		},
	)

	huma.Register(
		authorsAPI,
		huma.Operation{
			OperationID: "getAuthor",
			Method:      http.MethodGet,
			Path:        "/{id}",
			Summary:     "Get an author",
			Tags:        tags,
		},
		func(ctx context.Context, input *AuthorRequest) (*AuthorResponse, error) {
			return res.handleGetAuthor(ctx, input.ID)
		},
	)

	huma.Register(
		authorsAPI,
		huma.Operation{
			OperationID: "replaceAuthor",
			Method:      http.MethodPut,
			Path:        "/{id}",
			Summary:     "Replace an author",
			Tags:        tags,
		},
		func(ctx context.Context, input *AuthorReplaceRequest) (*AuthorResponse, error) {
			return res.handleReplaceAuthor(ctx, input.ID, input.Body)
		},
	)

	huma.Register(
		authorsAPI,
		huma.Operation{
			OperationID: "updateAuthor",
			Method:      http.MethodPatch,
			Path:        "/{id}",
			Summary:     "Partially update an author",
			Tags:        tags,
		},
		func(ctx context.Context, input *AuthorUpdateRequest) (*AuthorResponse, error) {
			return res.handleUpdateAuthor(ctx, input.ID, input.Body)
		},
	)

	huma.Register(
		authorsAPI,
		huma.Operation{
			OperationID:   "deleteAuthor",
			Method:        http.MethodDelete,
			Path:          "/{id}",
			Summary:       "Delete an author and all of their books",
			Tags:          tags,
			DefaultStatus: http.StatusNoContent,
		},
		func(ctx context.Context, input *AuthorRequest) (*struct{}, error) {
			return nil, res.handleDeleteAuthor(ctx, input.ID)
		},
	)

	huma.Register(
		authorsAPI,
		huma.Operation{
			OperationID: "listAuthorBooks",
			Method:      http.MethodGet,
			Path:        "/{id}/books",
			Summary:     "List the books written by an author",
			Tags:        append(tags, "Books"),
		},
		func(ctx context.Context, input *AuthorRequest) (*BooksResponse, error) {
			return res.handleListAuthorBooks(ctx, input.ID)
		},
	)

	huma.Register(
		authorsAPI,
		huma.Operation{
			OperationID: "getAuthorBook",
			Method:      http.MethodGet,
			Path:        "/{id}/books/{book}",
			Summary:     "Get a book written by an author",
			Tags:        append(tags, "Books"),
		},
		func(ctx context.Context, input *AuthorBookRequest) (*BookResponse, error) {
			return res.handleGetAuthorBook(ctx, input.ID, input.Book)
		},
	)
}

// handleListAuthors is the handler for listing every author.
func (r *resources) handleListAuthors(ctx context.Context) (*AuthorsResponse, error) {
	authors, err := r.authors.Query(ctx, contracts.Filter{})
	if err != nil {
		return nil, err
	}

	return &AuthorsResponse{Body: r.serializer.Authors(authors)}, nil
}

// handleCreateAuthor is the handler for creating an author.
// Any identifier supplied in the body is ignored, the store assigns it.
func (r *resources) handleCreateAuthor(ctx context.Context, body AuthorBody) (*AuthorResponse, error) {
	a, err := r.authors.Create(ctx, domain.Author{Name: body.Name})
	if err != nil {
		return nil, err
	}

	return &AuthorResponse{Body: r.serializer.Author(a)}, nil
}

// handleGetAuthor is the handler for retrieving the author identified by tok.
func (r *resources) handleGetAuthor(ctx context.Context, tok string) (*AuthorResponse, error) {
	a, err := r.authorLookup.Resolve(ctx, tok, contracts.Filter{})
	if err != nil {
		return nil, err
	}

	return &AuthorResponse{Body: r.serializer.Author(a)}, nil
}

// handleReplaceAuthor is the handler for replacing every writable field of the author identified by tok.
func (r *resources) handleReplaceAuthor(ctx context.Context, tok string, body AuthorBody) (*AuthorResponse, error) {
	a, err := r.authorLookup.Resolve(ctx, tok, contracts.Filter{})
	if err != nil {
		return nil, err
	}
	if err := checkBodyID(r.serializer.authorID, body.ID, a.ID); err != nil {
		return nil, err
	}

	a.Name = body.Name

	updated, err := r.authors.Update(ctx, a)
	if err != nil {
		return nil, err
	}

	return &AuthorResponse{Body: r.serializer.Author(updated)}, nil
}

// handleUpdateAuthor is the handler for partially updating the author identified by tok.
func (r *resources) handleUpdateAuthor(ctx context.Context, tok string, body AuthorPatchBody) (*AuthorResponse, error) {
	a, err := r.authorLookup.Resolve(ctx, tok, contracts.Filter{})
	if err != nil {
		return nil, err
	}
	if err := checkBodyID(r.serializer.authorID, body.ID, a.ID); err != nil {
		return nil, err
	}

	if body.Name != nil {
		a.Name = *body.Name
	}

	updated, err := r.authors.Update(ctx, a)
	if err != nil {
		return nil, err
	}

	return &AuthorResponse{Body: r.serializer.Author(updated)}, nil
}

// handleDeleteAuthor is the handler for deleting the author identified by tok.
func (r *resources) handleDeleteAuthor(ctx context.Context, tok string) error {
	a, err := r.authorLookup.Resolve(ctx, tok, contracts.Filter{})
	if err != nil {
		return err
	}

	return r.authors.Delete(ctx, a.ID)
}

// handleListAuthorBooks is the handler for listing the books written by the author identified by tok.
func (r *resources) handleListAuthorBooks(ctx context.Context, tok string) (*BooksResponse, error) {
	a, err := r.authorLookup.Resolve(ctx, tok, contracts.Filter{})
	if err != nil {
		return nil, err
	}

	books, err := r.books.Query(ctx, contracts.Filter{AuthorID: &a.ID})
	if err != nil {
		return nil, err
	}

	mode := negotiate.FromContext(ctx).Mode()
	out := make([]Book, 0, len(books))
	for _, b := range books {
		out = append(out, r.serializer.BookWithAuthor(mode, b, a))
	}

	return &BooksResponse{Body: out}, nil
}

// handleGetAuthorBook is the handler for retrieving a book, scoped to the author who wrote it.
func (r *resources) handleGetAuthorBook(ctx context.Context, authorTok string, bookTok string) (*BookResponse, error) {
	a, err := r.authorLookup.Resolve(ctx, authorTok, contracts.Filter{})
	if err != nil {
		return nil, err
	}

	b, err := r.bookLookup.Resolve(ctx, bookTok, contracts.Filter{AuthorID: &a.ID})
	if err != nil {
		return nil, err
	}

	mode := negotiate.FromContext(ctx).Mode()

	return &BookResponse{Body: r.serializer.BookWithAuthor(mode, b, a)}, nil
}

// checkBodyID verifies that an identifier echoed in a request body names the resource at the request path.
// An empty token is accepted.
func checkBodyID(f fields.IDField, tok string, id uint64) error {
	if tok == "" {
		return nil
	}

	got, err := f.Decode(tok)
	if err != nil {
		return err
	}
	if got != id {
		return errors.NewFieldError(
			f.Name(),
			tok,
			fmt.Errorf("%w: identifier does not match the request path", errors.ErrBadRequest),
		)
	}

	return nil
}
