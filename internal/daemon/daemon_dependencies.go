package daemon

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/token"
)

// Dependencies contains required dependencies for the Daemon.
// NewDependencies should be used to create instances of Dependencies.
type Dependencies struct {
	// APIAddr specifies the network address for the APIServer to bind (e.g., "0.0.0.0:8085").
	APIAddr string

	// Authors provides author persistence.
	Authors contracts.AuthorStore

	// Books provides book persistence.
	Books contracts.BookStore

	// Codec converts between internal identifiers and the opaque tokens exposed by the API.
	Codec token.Codec

	// HealthChecker is pinged periodically to establish store health.
	HealthChecker contracts.HealthChecker

	// Logger for daemon and subcomponent (API server) operations.
	Logger hclog.Logger
}

// NewDependencies creates and validates Dependencies.
func NewDependencies(
	logger hclog.Logger,
	apiAddr string,
	codec token.Codec,
	checker contracts.HealthChecker,
	authors contracts.AuthorStore,
	books contracts.BookStore,
) (Dependencies, error) {
	deps := Dependencies{
		APIAddr:       apiAddr,
		Authors:       authors,
		Books:         books,
		Codec:         codec,
		HealthChecker: checker,
		Logger:        logger,
	}

	if err := deps.Validate(); err != nil {
		return Dependencies{}, err
	}

	return deps, nil
}

// Validate ensures all required dependencies are provided and valid.
func (d Dependencies) Validate() error {
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}

	if err := validateAddr(d.APIAddr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.APIAddr, err)
	}

	if d.HealthChecker == nil || reflect.ValueOf(d.HealthChecker).IsNil() {
		return fmt.Errorf("health checker cannot be nil")
	}

	if d.Authors == nil || reflect.ValueOf(d.Authors).IsNil() {
		return fmt.Errorf("author store cannot be nil")
	}

	if d.Books == nil || reflect.ValueOf(d.Books).IsNil() {
		return fmt.Errorf("book store cannot be nil")
	}

	return nil
}
