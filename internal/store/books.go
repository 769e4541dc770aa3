package store

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/domain"
	"github.com/mozilla-ai/bookstore/internal/errors"
)

var _ contracts.BookStore = (*BookRepository)(nil)

// BookRepository persists books.
type BookRepository struct {
	store *Store
}

func (r *BookRepository) Get(ctx context.Context, id uint64) (domain.Book, error) {
	if !storable(id) {
		return domain.Book{}, fmt.Errorf("%w: book %d", errors.ErrNotFound, id)
	}

	var b domain.Book
	err := r.store.db.QueryRowContext(ctx,
		r.store.rebind(`SELECT id, title, author_id FROM books WHERE id = ?`), id,
	).Scan(&b.ID, &b.Title, &b.AuthorID)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return domain.Book{}, fmt.Errorf("%w: book %d", errors.ErrNotFound, id)
	}
	if err != nil {
		return domain.Book{}, fmt.Errorf("get book %d: %w", id, err)
	}

	return b, nil
}

func (r *BookRepository) Query(ctx context.Context, f contracts.Filter) ([]domain.Book, error) {
	var (
		conds []string
		args  []any
	)
	if !storableFilter(f) {
		return []domain.Book{}, nil
	}
	if f.ID != nil {
		conds = append(conds, "id = ?")
		args = append(args, *f.ID)
	}
	if f.AuthorID != nil {
		conds = append(conds, "author_id = ?")
		args = append(args, *f.AuthorID)
	}

	rows, err := r.store.db.QueryContext(ctx,
		r.store.rebind(`SELECT id, title, author_id FROM books`+where(conds)+` ORDER BY id`), args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := make([]domain.Book, 0)
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.AuthorID); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}

	return books, rows.Err()
}

func (r *BookRepository) Create(ctx context.Context, b domain.Book) (domain.Book, error) {
	err := r.store.db.QueryRowContext(ctx,
		r.store.rebind(`INSERT INTO books (title, author_id) VALUES (?, ?) RETURNING id`), b.Title, b.AuthorID,
	).Scan(&b.ID)
	if err != nil {
		return domain.Book{}, fmt.Errorf("insert book: %w", err)
	}

	r.store.logger.Debug("Created book", "id", b.ID, "author", b.AuthorID)

	return b, nil
}

func (r *BookRepository) Update(ctx context.Context, b domain.Book) (domain.Book, error) {
	if !storable(b.ID) {
		return domain.Book{}, fmt.Errorf("%w: book %d", errors.ErrNotFound, b.ID)
	}

	res, err := r.store.db.ExecContext(ctx,
		r.store.rebind(`UPDATE books SET title = ?, author_id = ? WHERE id = ?`), b.Title, b.AuthorID, b.ID,
	)
	if err != nil {
		return domain.Book{}, fmt.Errorf("update book %d: %w", b.ID, err)
	}
	if err := requireAffected(res, "book", b.ID); err != nil {
		return domain.Book{}, err
	}

	return b, nil
}

func (r *BookRepository) Delete(ctx context.Context, id uint64) error {
	if !storable(id) {
		return fmt.Errorf("%w: book %d", errors.ErrNotFound, id)
	}

	res, err := r.store.db.ExecContext(ctx, r.store.rebind(`DELETE FROM books WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	return requireAffected(res, "book", id)
}
