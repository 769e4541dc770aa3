package store

import (
	"fmt"
	"strings"
)

// Driver identifies a supported database backend.
type Driver string

const (
	// DriverSQLite stores data in a local SQLite file (modernc.org/sqlite).
	DriverSQLite Driver = "sqlite"

	// DriverPostgres stores data in PostgreSQL (pgx).
	DriverPostgres Driver = "postgres"
)

// Options contains optional configuration for a Store.
// NewOptions should be used to create instances of Options.
type Options struct {
	// Driver selects the database backend.
	Driver Driver

	// DSN is the driver specific data source name.
	// For SQLite this is a file path (or ':memory:'), for Postgres a connection URL.
	DSN string
}

// Option defines a functional option for configuring Options.
// Options are applied in order, with later options overriding earlier ones.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
// Starts with default values, then applies options in order with later options overriding earlier ones.
func NewOptions(opt ...Option) (Options, error) {
	opts := Options{
		Driver: DefaultDriver(),
		DSN:    DefaultDSN(),
	}

	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return Options{}, err
		}
	}

	return opts, nil
}

// WithDriver selects the database backend.
func WithDriver(d Driver) Option {
	return func(o *Options) error {
		parsed, err := ParseDriver(string(d))
		if err != nil {
			return err
		}
		o.Driver = parsed
		return nil
	}
}

// WithDSN sets the data source name.
func WithDSN(dsn string) Option {
	return func(o *Options) error {
		dsn = strings.TrimSpace(dsn)
		if dsn == "" {
			return fmt.Errorf("store DSN cannot be empty")
		}
		o.DSN = dsn
		return nil
	}
}

// ParseDriver converts a (case-insensitive) driver name to a Driver.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case DriverSQLite, DriverPostgres:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported store driver '%s', must be one of: %s, %s", s, DriverSQLite, DriverPostgres)
	}
}

// DefaultDriver returns the default database backend.
func DefaultDriver() Driver {
	return DriverSQLite
}

// DefaultDSN returns the default data source name, a SQLite file in the current directory.
func DefaultDSN() string {
	return "bookstore.db"
}
