// Package store provides the SQL-backed entity store for authors and books.
// SQLite (modernc.org/sqlite) and PostgreSQL (pgx) are supported, with the schema managed by goose migrations.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/perms"
)

var _ contracts.HealthChecker = (*Store)(nil)

//go:embed migrations
var migrations embed.FS

// Store owns the database handle and vends the per-entity repositories.
// Open should be used to create instances of Store.
type Store struct {
	db      *sql.DB
	driver  Driver
	logger  hclog.Logger
	authors *AuthorRepository
	books   *BookRepository
}

// Open connects to the configured database and applies any pending migrations.
func Open(ctx context.Context, logger hclog.Logger, opt ...Option) (*Store, error) {
	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	logger = logger.Named("store")

	var db *sql.DB
	switch opts.Driver {
	case DriverSQLite:
		db, err = openSQLite(opts.DSN)
	case DriverPostgres:
		db, err = sql.Open("pgx", opts.DSN)
	default:
		err = fmt.Errorf("unsupported store driver: %s", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Driver, err)
	}

	s := &Store{
		db:     db,
		driver: opts.Driver,
		logger: logger,
	}
	s.authors = &AuthorRepository{store: s}
	s.books = &BookRepository{store: s}

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s database: %w", opts.Driver, err)
	}

	logger.Info("Store ready", "driver", opts.Driver)

	return s, nil
}

// openSQLite opens a SQLite database, creating the parent directory of file databases when required.
func openSQLite(dsn string) (*sql.DB, error) {
	path, _, _ := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")
	if path != ":memory:" && path != "" {
		if err := os.MkdirAll(filepath.Dir(path), perms.RegularDir); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		// The database holds every record, create it readable by the owner only.
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, perms.SecureFile)
		if err != nil {
			return nil, fmt.Errorf("create database file: %w", err)
		}
		_ = f.Close()
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite serializes writers; a single connection also keeps ':memory:' databases coherent.
	db.SetMaxOpenConns(1)

	return db, nil
}

func (s *Store) migrate(ctx context.Context) error {
	dialect := goose.DialectSQLite3
	if s.driver == DriverPostgres {
		dialect = goose.DialectPostgres
	}

	fsys, err := fs.Sub(migrations, "migrations/"+string(s.driver))
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, s.db, fsys)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}

	for _, r := range results {
		s.logger.Debug("Applied migration", "source", r.Source.Path, "duration", r.Duration)
	}

	return nil
}

// Authors returns the author repository.
func (s *Store) Authors() *AuthorRepository {
	return s.authors
}

// Books returns the book repository.
func (s *Store) Books() *BookRepository {
	return s.books
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites '?' placeholders into the positional form expected by the active driver.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// storable reports whether id fits the signed 64-bit identifier columns.
// Tokens can decode to any uint64, anything larger cannot exist in the database.
func storable(id uint64) bool {
	return id <= math.MaxInt64
}

func storableFilter(f contracts.Filter) bool {
	return (f.ID == nil || storable(*f.ID)) && (f.AuthorID == nil || storable(*f.AuthorID))
}

// where builds a WHERE clause (including the keyword) from conditions joined by AND.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
