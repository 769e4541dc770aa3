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

var _ contracts.AuthorStore = (*AuthorRepository)(nil)

// AuthorRepository persists authors.
type AuthorRepository struct {
	store *Store
}

func (r *AuthorRepository) Get(ctx context.Context, id uint64) (domain.Author, error) {
	if !storable(id) {
		return domain.Author{}, fmt.Errorf("%w: author %d", errors.ErrNotFound, id)
	}

	var a domain.Author
	err := r.store.db.QueryRowContext(ctx,
		r.store.rebind(`SELECT id, name FROM authors WHERE id = ?`), id,
	).Scan(&a.ID, &a.Name)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return domain.Author{}, fmt.Errorf("%w: author %d", errors.ErrNotFound, id)
	}
	if err != nil {
		return domain.Author{}, fmt.Errorf("get author %d: %w", id, err)
	}

	return a, nil
}

func (r *AuthorRepository) Query(ctx context.Context, f contracts.Filter) ([]domain.Author, error) {
	var (
		conds []string
		args  []any
	)
	if !storableFilter(f) {
		return []domain.Author{}, nil
	}
	if f.ID != nil {
		conds = append(conds, "id = ?")
		args = append(args, *f.ID)
	}

	rows, err := r.store.db.QueryContext(ctx,
		r.store.rebind(`SELECT id, name FROM authors`+where(conds)+` ORDER BY id`), args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	defer rows.Close()

	authors := make([]domain.Author, 0)
	for rows.Next() {
		var a domain.Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}

	return authors, rows.Err()
}

func (r *AuthorRepository) Create(ctx context.Context, a domain.Author) (domain.Author, error) {
	err := r.store.db.QueryRowContext(ctx,
		r.store.rebind(`INSERT INTO authors (name) VALUES (?) RETURNING id`), a.Name,
	).Scan(&a.ID)
	if err != nil {
		return domain.Author{}, fmt.Errorf("insert author: %w", err)
	}

	r.store.logger.Debug("Created author", "id", a.ID)

	return a, nil
}

func (r *AuthorRepository) Update(ctx context.Context, a domain.Author) (domain.Author, error) {
	if !storable(a.ID) {
		return domain.Author{}, fmt.Errorf("%w: author %d", errors.ErrNotFound, a.ID)
	}

	res, err := r.store.db.ExecContext(ctx,
		r.store.rebind(`UPDATE authors SET name = ? WHERE id = ?`), a.Name, a.ID,
	)
	if err != nil {
		return domain.Author{}, fmt.Errorf("update author %d: %w", a.ID, err)
	}
	if err := requireAffected(res, "author", a.ID); err != nil {
		return domain.Author{}, err
	}

	return a, nil
}

func (r *AuthorRepository) Delete(ctx context.Context, id uint64) error {
	if !storable(id) {
		return fmt.Errorf("%w: author %d", errors.ErrNotFound, id)
	}

	res, err := r.store.db.ExecContext(ctx, r.store.rebind(`DELETE FROM authors WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete author %d: %w", id, err)
	}

	return requireAffected(res, "author", id)
}

// requireAffected returns an error wrapping errors.ErrNotFound when a statement matched no rows.
func requireAffected(res sql.Result, kind string, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", errors.ErrNotFound, kind, id)
	}
	return nil
}
