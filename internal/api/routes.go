package api

import (
	"fmt"
	"net/url"
	"reflect"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/domain"
	"github.com/mozilla-ai/bookstore/internal/lookup"
	"github.com/mozilla-ai/bookstore/internal/token"
)

// APIVersion is the version used in the OpenAPI spec and URL paths.
const APIVersion = "v1"

// defaultLoadConcurrency bounds the concurrent author loads used to render nested book lists.
const defaultLoadConcurrency = 8

// resources holds the collaborators shared by the author and book handlers.
type resources struct {
	authors         contracts.AuthorStore
	books           contracts.BookStore
	authorLookup    *lookup.Resolver[domain.Author]
	bookLookup      *lookup.Resolver[domain.Book]
	serializer      *serializer
	loadConcurrency int
}

// RegisterRoutes registers all API routes on the provided Huma router.
// This is the single source of truth for the API route structure.
// Returns the API path prefix (e.g., "/api/v1") under which the routes are created.
func RegisterRoutes(
	router huma.API,
	codec token.Codec,
	health contracts.HealthMonitor,
	authors contracts.AuthorStore,
	books contracts.BookStore,
) (string, error) {
	if router == nil || reflect.ValueOf(router).IsNil() {
		return "", fmt.Errorf("router cannot be nil")
	}
	if health == nil || reflect.ValueOf(health).IsNil() {
		return "", fmt.Errorf("health monitor cannot be nil")
	}
	if authors == nil || reflect.ValueOf(authors).IsNil() {
		return "", fmt.Errorf("author store cannot be nil")
	}
	if books == nil || reflect.ValueOf(books).IsNil() {
		return "", fmt.Errorf("book store cannot be nil")
	}

	res, err := newResources(codec, authors, books)
	if err != nil {
		return "", err
	}

	// Extract API version from the router's OpenAPI spec.
	apiVersionID := router.OpenAPI().Info.Version

	// Safe way to ensure /api/{version}.
	apiPathPrefix, err := url.JoinPath("/api", apiVersionID)
	if err != nil {
		return "", fmt.Errorf("failed to construct API path prefix: %w", err)
	}

	// Group all routes under the /api/{version} prefix.
	versionedGroup := huma.NewGroup(router, apiPathPrefix)
	RegisterHealthRoutes(versionedGroup, health, "/health")
	registerAuthorRoutes(versionedGroup, res, "/authors")
	registerBookRoutes(versionedGroup, res, "/books")

	return apiPathPrefix, nil
}

func newResources(codec token.Codec, authors contracts.AuthorStore, books contracts.BookStore) (*resources, error) {
	ser, err := newSerializer(codec, authors)
	if err != nil {
		return nil, err
	}

	authorLookup, err := lookup.NewResolver[domain.Author](codec, authors)
	if err != nil {
		return nil, fmt.Errorf("author lookup: %w", err)
	}

	bookLookup, err := lookup.NewResolver[domain.Book](codec, books)
	if err != nil {
		return nil, fmt.Errorf("book lookup: %w", err)
	}

	return &resources{
		authors:         authors,
		books:           books,
		authorLookup:    authorLookup,
		bookLookup:      bookLookup,
		serializer:      ser,
		loadConcurrency: defaultLoadConcurrency,
	}, nil
}
