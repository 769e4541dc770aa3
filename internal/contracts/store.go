package contracts

import (
	"context"

	"github.com/mozilla-ai/bookstore/internal/domain"
)

// Filter restricts a store query.
// Nil fields are not applied.
type Filter struct {
	// ID restricts results to the entity with this identifier.
	ID *uint64

	// AuthorID restricts book results to those written by this author.
	// It is ignored when querying authors.
	AuthorID *uint64
}

// WithID returns a copy of the filter that is additionally restricted to id.
func (f Filter) WithID(id uint64) Filter {
	f.ID = &id
	return f
}

// Getter loads a single entity by its internal identifier.
type Getter[T any] interface {
	// Get returns the entity with the given identifier.
	// It returns an error wrapping errors.ErrNotFound when no such entity exists.
	Get(ctx context.Context, id uint64) (T, error)
}

// Querier loads all entities matching a filter.
type Querier[T any] interface {
	// Query returns matching entities ordered by identifier.
	Query(ctx context.Context, f Filter) ([]T, error)
}

// AuthorStore provides persistence for authors.
type AuthorStore interface {
	Getter[domain.Author]
	Querier[domain.Author]

	// Create persists a new author and returns it with its store-assigned identifier.
	Create(ctx context.Context, a domain.Author) (domain.Author, error)

	// Update replaces the stored fields of an existing author.
	Update(ctx context.Context, a domain.Author) (domain.Author, error)

	// Delete removes an author, and with it every book that references the author.
	Delete(ctx context.Context, id uint64) error
}

// BookStore provides persistence for books.
type BookStore interface {
	Getter[domain.Book]
	Querier[domain.Book]

	// Create persists a new book and returns it with its store-assigned identifier.
	Create(ctx context.Context, b domain.Book) (domain.Book, error)

	// Update replaces the stored fields of an existing book.
	Update(ctx context.Context, b domain.Book) (domain.Book, error)

	// Delete removes a book.
	Delete(ctx context.Context, id uint64) error
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	// Ping returns an error when the service cannot be reached.
	Ping(ctx context.Context) error
}

// HealthMonitor reports the most recently observed health of the store.
type HealthMonitor interface {
	// Health returns the latest recorded health check.
	Health() domain.Health
}
