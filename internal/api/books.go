package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/domain"
	"github.com/mozilla-ai/bookstore/internal/negotiate"
)

// Book is the API representation of a book.
// Author holds the author's opaque identifier, or the full Author when the response format is json.
type Book struct {
	ID     string `doc:"Opaque book identifier"                                         example:"Mg==" json:"id"     readOnly:"true"`
	Title  string `doc:"Title of the book"                                              example:"Dune" json:"title"`
	Author any    `doc:"Opaque author identifier, or the nested author for json responses"               json:"author"`
}

// BookBody is the request body used to create or replace a book.
type BookBody struct {
	ID     string `doc:"Opaque book identifier, ignored on create and must match the path otherwise"                  example:"Mg==" json:"id,omitempty"     readOnly:"true"`
	Title  string `doc:"Title of the book"                                                                            example:"Dune" json:"title"            minLength:"1"`
	Author any    `doc:"Opaque author identifier. JSON bodies may instead send an object carrying it under the id key"                json:"author,omitempty"`
}

// BookPatchBody is the request body used to partially update a book.
// Absent fields are left unchanged.
type BookPatchBody struct {
	ID     string  `doc:"Opaque book identifier, must match the path"                                                   example:"Mg==" json:"id,omitempty"     readOnly:"true"`
	Title  *string `doc:"Title of the book"                                                                             example:"Dune" json:"title,omitempty"  minLength:"1"`
	Author any     `doc:"Opaque author identifier. JSON bodies may instead send an object carrying it under the id key"                json:"author,omitempty"`
}

// BooksRequest represents the incoming API request for listing books.
type BooksRequest struct {
	Author string `doc:"Only list books written by this author" example:"MQ==" query:"author"`
}

// BookRequest represents the incoming API request for a single book.
type BookRequest struct {
	ID string `doc:"Opaque book identifier" example:"Mg==" path:"id"`
}

// BookCreateRequest represents the incoming API request to create a book.
type BookCreateRequest struct {
	Body BookBody
}

// BookReplaceRequest represents the incoming API request to replace a book.
type BookReplaceRequest struct {
	ID   string `doc:"Opaque book identifier" example:"Mg==" path:"id"`
	Body BookBody
}

// BookUpdateRequest represents the incoming API request to partially update a book.
type BookUpdateRequest struct {
	ID   string `doc:"Opaque book identifier" example:"Mg==" path:"id"`
	Body BookPatchBody
}

// BookResponse represents the wrapped API response for a Book.
type BookResponse struct {
	Body Book
}

// BooksResponse represents the wrapped API response for a list of books.
type BooksResponse struct {
	Body []Book
}

// registerBookRoutes sets up book-related API endpoints.
func registerBookRoutes(routerAPI huma.API, res *resources, apiPathPrefix string) {
	booksAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Books"}

	// Add route at the root of the group (no path specified).
	huma.Register(
		booksAPI,
		huma.Operation{
			OperationID: "listBooks",
			Method:      http.MethodGet,
			Summary:     "List all books",
			Tags:        tags,
		},
		func(ctx context.Context, input *BooksRequest) (*BooksResponse, error) {
			return res.handleListBooks(ctx, input.Author)
		},
	)

	huma.Register(
		booksAPI,
		huma.Operation{
			OperationID:   "createBook",
			Method:        http.MethodPost,
			Summary:       "Create a book",
			Tags:          tags,
			DefaultStatus: http.StatusCreated,
		},
		func(ctx context.Context, input *BookCreateRequest) (*BookResponse, error) {
			return res.handleCreateBook(ctx, input.Body)
		},
	)

	huma.Register(
		booksAPI,
		huma.Operation{
			OperationID: "getBook",
			Method:      http.MethodGet,
			Path:        "/{id}",
			Summary:     "Get a book",
			Tags:        tags,
		},
		func(ctx context.Context, input *BookRequest) (*BookResponse, error) {
			return res.handleGetBook(ctx, input.ID)
		},
	)

	huma.Register(
		booksAPI,
		huma.Operation{
			OperationID: "replaceBook",
			Method:      http.MethodPut,
			Path:        "/{id}",
			Summary:     "Replace a book",
			Tags:        tags,
		},
		func(ctx context.Context, input *BookReplaceRequest) (*BookResponse, error) {
			return res.handleReplaceBook(ctx, input.ID, input.Body)
		},
	)

	huma.Register(
		booksAPI,
		huma.Operation{
			OperationID: "updateBook",
			Method:      http.MethodPatch,
			Path:        "/{id}",
			Summary:     "Partially update a book",
			Tags:        tags,
		},
		func(ctx context.Context, input *BookUpdateRequest) (*BookResponse, error) {
			return res.handleUpdateBook(ctx, input.ID, input.Body)
		},
	)

	huma.Register(
		booksAPI,
		huma.Operation{
			OperationID:   "deleteBook",
			Method:        http.MethodDelete,
			Path:          "/{id}",
			Summary:       "Delete a book",
			Tags:          tags,
			DefaultStatus: http.StatusNoContent,
		},
		func(ctx context.Context, input *BookRequest) (*struct{}, error) {
			return nil, res.handleDeleteBook(ctx, input.ID)
		},
	)
}

// handleListBooks is the handler for listing books, optionally restricted to a single author.
func (r *resources) handleListBooks(ctx context.Context, authorTok string) (*BooksResponse, error) {
	var f contracts.Filter
	if authorTok != "" {
		id, err := r.authorLookup.ID(authorTok)
		if err != nil {
			return nil, err
		}
		f.AuthorID = &id
	}

	books, err := r.books.Query(ctx, f)
	if err != nil {
		return nil, err
	}

	out, err := r.renderBooks(ctx, negotiate.FromContext(ctx).Mode(), books)
	if err != nil {
		return nil, err
	}

	return &BooksResponse{Body: out}, nil
}

// handleCreateBook is the handler for creating a book.
func (r *resources) handleCreateBook(ctx context.Context, body BookBody) (*BookResponse, error) {
	req := negotiate.FromContext(ctx)

	author, err := r.serializer.author.Decode(ctx, req.StructuredInput(), body.Author)
	if err != nil {
		return nil, err
	}

	b, err := r.books.Create(ctx, domain.Book{Title: body.Title, AuthorID: author.ID})
	if err != nil {
		return nil, err
	}

	return &BookResponse{Body: r.serializer.BookWithAuthor(req.Mode(), b, author.Entity)}, nil
}

// handleGetBook is the handler for retrieving the book identified by tok.
func (r *resources) handleGetBook(ctx context.Context, tok string) (*BookResponse, error) {
	b, err := r.bookLookup.Resolve(ctx, tok, contracts.Filter{})
	if err != nil {
		return nil, err
	}

	data, err := r.serializer.Book(ctx, negotiate.FromContext(ctx).Mode(), b)
	if err != nil {
		return nil, err
	}

	return &BookResponse{Body: data}, nil
}

// handleReplaceBook is the handler for replacing every writable field of the book identified by tok.
func (r *resources) handleReplaceBook(ctx context.Context, tok string, body BookBody) (*BookResponse, error) {
	req := negotiate.FromContext(ctx)

	b, err := r.bookLookup.Resolve(ctx, tok, contracts.Filter{})
	if err != nil {
		return nil, err
	}
	if err := checkBodyID(r.serializer.bookID, body.ID, b.ID); err != nil {
		return nil, err
	}

	author, err := r.serializer.author.Decode(ctx, req.StructuredInput(), body.Author)
	if err != nil {
		return nil, err
	}

	b.Title = body.Title
	b.AuthorID = author.ID

	updated, err := r.books.Update(ctx, b)
	if err != nil {
		return nil, err
	}

	return &BookResponse{Body: r.serializer.BookWithAuthor(req.Mode(), updated, author.Entity)}, nil
}

// handleUpdateBook is the handler for partially updating the book identified by tok.
func (r *resources) handleUpdateBook(ctx context.Context, tok string, body BookPatchBody) (*BookResponse, error) {
	req := negotiate.FromContext(ctx)

	b, err := r.bookLookup.Resolve(ctx, tok, contracts.Filter{})
	if err != nil {
		return nil, err
	}
	if err := checkBodyID(r.serializer.bookID, body.ID, b.ID); err != nil {
		return nil, err
	}

	if body.Title != nil {
		b.Title = *body.Title
	}

	if body.Author != nil {
		author, err := r.serializer.author.Decode(ctx, req.StructuredInput(), body.Author)
		if err != nil {
			return nil, err
		}
		b.AuthorID = author.ID
	}

	updated, err := r.books.Update(ctx, b)
	if err != nil {
		return nil, err
	}

	data, err := r.serializer.Book(ctx, req.Mode(), updated)
	if err != nil {
		return nil, err
	}

	return &BookResponse{Body: data}, nil
}

// handleDeleteBook is the handler for deleting the book identified by tok.
func (r *resources) handleDeleteBook(ctx context.Context, tok string) error {
	b, err := r.bookLookup.Resolve(ctx, tok, contracts.Filter{})
	if err != nil {
		return err
	}

	return r.books.Delete(ctx, b.ID)
}

// renderBooks returns the API representations of books.
// In nested mode each distinct author is loaded once, concurrently.
func (r *resources) renderBooks(ctx context.Context, mode negotiate.Mode, books []domain.Book) ([]Book, error) {
	out := make([]Book, 0, len(books))

	if mode != negotiate.ModeNested {
		for _, b := range books {
			out = append(out, r.serializer.BookWithAuthor(mode, b, domain.Author{}))
		}
		return out, nil
	}

	authors, err := r.loadAuthors(ctx, books)
	if err != nil {
		return nil, err
	}

	for _, b := range books {
		out = append(out, r.serializer.BookWithAuthor(mode, b, authors[b.AuthorID]))
	}

	return out, nil
}

// loadAuthors returns the authors of books keyed by identifier.
func (r *resources) loadAuthors(ctx context.Context, books []domain.Book) (map[uint64]domain.Author, error) {
	seen := make(map[uint64]struct{}, len(books))
	ids := make([]uint64, 0, len(books))
	for _, b := range books {
		if _, ok := seen[b.AuthorID]; ok {
			continue
		}
		seen[b.AuthorID] = struct{}{}
		ids = append(ids, b.AuthorID)
	}

	loaded := make([]domain.Author, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.loadConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			a, err := r.authors.Get(gctx, id)
			if err != nil {
				return err
			}
			loaded[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	authors := make(map[uint64]domain.Author, len(loaded))
	for _, a := range loaded {
		authors[a.ID] = a
	}

	return authors, nil
}
