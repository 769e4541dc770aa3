package daemon

import (
	"context"
	"sync/atomic"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/domain"
)

// fakeChecker implements contracts.HealthChecker for testing.
type fakeChecker struct {
	err   error
	block bool
	pings atomic.Int32
}

func (f *fakeChecker) Ping(ctx context.Context) error {
	f.pings.Add(1)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

// fakeAuthors implements contracts.AuthorStore for dependency validation tests.
type fakeAuthors struct{}

func (fakeAuthors) Get(context.Context, uint64) (domain.Author, error) { return domain.Author{}, nil }

func (fakeAuthors) Query(context.Context, contracts.Filter) ([]domain.Author, error) { return nil, nil }

func (fakeAuthors) Create(_ context.Context, a domain.Author) (domain.Author, error) { return a, nil }

func (fakeAuthors) Update(_ context.Context, a domain.Author) (domain.Author, error) { return a, nil }

func (fakeAuthors) Delete(context.Context, uint64) error { return nil }

// fakeBooks implements contracts.BookStore for dependency validation tests.
type fakeBooks struct{}

func (fakeBooks) Get(context.Context, uint64) (domain.Book, error) { return domain.Book{}, nil }

func (fakeBooks) Query(context.Context, contracts.Filter) ([]domain.Book, error) { return nil, nil }

func (fakeBooks) Create(_ context.Context, b domain.Book) (domain.Book, error) { return b, nil }

func (fakeBooks) Update(_ context.Context, b domain.Book) (domain.Book, error) { return b, nil }

func (fakeBooks) Delete(context.Context, uint64) error { return nil }

// fakeMonitor implements contracts.HealthMonitor for testing.
type fakeMonitor struct {
	health domain.Health
}

func (f *fakeMonitor) Health() domain.Health {
	return f.health
}
