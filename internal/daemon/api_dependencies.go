package daemon

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/token"
)

// APIDependencies contains the required external dependencies for the API server.
// NewAPIDependencies should be used to create instances of APIDependencies.
type APIDependencies struct {
	// Addr specifies the network address to bind (e.g., "0.0.0.0:8085").
	Addr string

	// Authors provides author persistence.
	Authors contracts.AuthorStore

	// Books provides book persistence.
	Books contracts.BookStore

	// Codec converts between internal identifiers and the opaque tokens exposed by the API.
	Codec token.Codec

	// HealthMonitor reports the latest store health check.
	HealthMonitor contracts.HealthMonitor

	// Logger for API server operations.
	Logger hclog.Logger
}

// NewAPIDependencies creates and validates APIDependencies.
func NewAPIDependencies(
	logger hclog.Logger,
	codec token.Codec,
	healthMonitor contracts.HealthMonitor,
	authors contracts.AuthorStore,
	books contracts.BookStore,
	addr string,
) (APIDependencies, error) {
	deps := APIDependencies{
		Addr:          addr,
		Authors:       authors,
		Books:         books,
		Codec:         codec,
		HealthMonitor: healthMonitor,
		Logger:        logger,
	}

	if err := deps.Validate(); err != nil {
		return APIDependencies{}, err
	}

	return deps, nil
}

// Validate ensures all required dependencies are provided and valid.
func (d APIDependencies) Validate() error {
	if err := validateAddr(d.Addr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.Addr, err)
	}
	if d.Authors == nil || reflect.ValueOf(d.Authors).IsNil() {
		return fmt.Errorf("author store cannot be nil")
	}
	if d.Books == nil || reflect.ValueOf(d.Books).IsNil() {
		return fmt.Errorf("book store cannot be nil")
	}
	if d.HealthMonitor == nil || reflect.ValueOf(d.HealthMonitor).IsNil() {
		return fmt.Errorf("health monitor cannot be nil")
	}
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	return nil
}
