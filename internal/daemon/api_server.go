package daemon

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"

	"github.com/mozilla-ai/bookstore/internal/api"
	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/errors"
	"github.com/mozilla-ai/bookstore/internal/negotiate"
	"github.com/mozilla-ai/bookstore/internal/token"
)

// installErrorHandler ensures the error handler is only assigned to huma once.
var installErrorHandler sync.Once

type loggerContextKey struct{}

// APIServer manages the HTTP API for the daemon.
// NewAPIServer should be used to create instances of APIServer.
type APIServer struct {
	// Logger for API server operations.
	logger hclog.Logger

	// Codec converts between internal identifiers and opaque tokens.
	codec token.Codec

	// HealthMonitor reports the latest store health check.
	healthMonitor contracts.HealthMonitor

	// Authors provides author persistence.
	authors contracts.AuthorStore

	// Books provides book persistence.
	books contracts.BookStore

	// Addr specifies the network address to bind.
	addr string

	// CORS configuration for cross-origin requests.
	cors CORSConfig

	// ShutdownTimeout specifies how long to wait for graceful shutdown.
	shutdownTimeout time.Duration

	// FormatOverrideKey is the query string parameter which selects the response format.
	formatOverrideKey string
}

// NewAPIServer creates a new API server with the provided dependencies and options.
// Applies default options first, then user-provided options to ensure all fields have valid values.
func NewAPIServer(deps APIDependencies, opt ...APIOption) (*APIServer, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for API server: %w", err)
	}

	// Ensure we always start with defaults and apply user options on top.
	apiOpts, err := NewAPIOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid API options: %w", err)
	}

	return &APIServer{
		logger:            deps.Logger.Named("api"),
		codec:             deps.Codec,
		healthMonitor:     deps.HealthMonitor,
		authors:           deps.Authors,
		books:             deps.Books,
		addr:              deps.Addr,
		cors:              apiOpts.CORS,
		shutdownTimeout:   apiOpts.ShutdownTimeout,
		formatOverrideKey: apiOpts.FormatOverrideKey,
	}, nil
}

// Handler builds the HTTP handler which serves the API.
// Returns the handler and the API path prefix (e.g., "/api/v1") under which the routes are created.
func (a *APIServer) Handler() (http.Handler, string, error) {
	mux, _, apiPathPrefix, err := a.router()
	if err != nil {
		return nil, "", err
	}

	return mux, apiPathPrefix, nil
}

// OpenAPI returns the OpenAPI document describing the routes served by Handler.
func (a *APIServer) OpenAPI() (*huma.OpenAPI, error) {
	_, router, _, err := a.router()
	if err != nil {
		return nil, err
	}

	return router.OpenAPI(), nil
}

// router creates the chi mux and the huma API registered on it.
func (a *APIServer) router() (*chi.Mux, huma.API, string, error) {
	// Safe way to ensure /api/{version}.
	suffixScope, err := url.JoinPath("/api", api.APIVersion)
	if err != nil {
		return nil, nil, "", err
	}

	// Create router.
	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	// Format suffixes are stripped before trailing slashes, and both before routing.
	mux.Use(negotiate.Middleware(a.formatOverrideKey, suffixScope))
	mux.Use(middleware.StripSlashes)
	mux.Use(requestLogger(a.logger))

	// Add CORS middleware if enabled.
	if a.cors.Enabled {
		a.applyCORS(mux)
	}

	config := huma.DefaultConfig("Bookstore API", api.APIVersion)
	// API transformers must see handler outputs before the schema link transformer wraps them.
	config.Transformers = append(api.Transformers(), config.Transformers...)
	router := humachi.New(mux, config)

	// Configure the error handling wrapping.
	installErrorHandler.Do(func() {
		huma.NewErrorWithContext = errorHandler
	})

	apiPathPrefix, err := api.RegisterRoutes(router, a.codec, a.healthMonitor, a.authors, a.books)
	if err != nil {
		return nil, nil, "", err
	}

	return mux, router, apiPathPrefix, nil
}

// Start starts the API server and blocks until the context is canceled or an error occurs.
func (a *APIServer) Start(ctx context.Context) error {
	handler, apiPathPrefix, err := a.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)

	// Start the API.
	go func() {
		a.logger.Info("Starting API server", "address", a.addr, "prefix", apiPathPrefix)
		if a.cors.Enabled {
			a.logger.Info("CORS enabled", "origins", a.cors.AllowOrigins)
		}
		if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Handle graceful shutdown.
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		a.logger.Info("Shutting down API server...")
		_ = srv.Shutdown(shutdownCtx)
		a.logger.Info("Shutdown complete")
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// applyCORS applies CORS middleware to the router based on the configured options.
func (a *APIServer) applyCORS(mux *chi.Mux) {
	a.logger.Info("Enabling CORS", "origins", a.cors.AllowOrigins)

	corsOptions := cors.Options{
		AllowedOrigins:   a.cors.AllowOrigins,
		AllowedMethods:   a.cors.AllowMethods,
		AllowedHeaders:   a.cors.AllowedHeaders,
		ExposedHeaders:   a.cors.ExposedHeaders,
		AllowCredentials: a.cors.AllowCredentials,
		MaxAge:           int(a.cors.MaxAge.Seconds()),
	}

	// Handle wildcard origins properly.
	for i, origin := range corsOptions.AllowedOrigins {
		if origin == "*" {
			corsOptions.AllowedOrigins = []string{"*"}
			corsOptions.AllowCredentials = false
			break
		}
		corsOptions.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	mux.Use(cors.Handler(corsOptions))
}

// requestLogger attaches logger to each request context and logs completed requests at debug level.
func requestLogger(logger hclog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := context.WithValue(r.Context(), loggerContextKey{}, logger)

			next.ServeHTTP(ww, r.WithContext(ctx))

			logger.Debug(
				"Handled request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"format", negotiate.FromContext(ctx).Format,
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(ctx),
			)
		})
	}
}

// loggerFromContext returns the logger attached by requestLogger, or a null logger.
func loggerFromContext(ctx context.Context) hclog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(hclog.Logger); ok {
		return logger
	}
	return hclog.NewNullLogger()
}

// mapError maps application domain errors to appropriate HTTP status codes.
//
// This function is the central place where domain errors from internal/errors are converted to HTTP responses.
// When adding new errors to internal/errors/errors.go, you MUST add them here to prevent them from falling
// through to the default case which returns HTTP 500.
//
// NOTE: Keep this function in sync with internal/errors/errors.go.
// Every error defined there should have an explicit case here otherwise it will default to 500.
//
// Mapping guidelines:
//   - 400: Client errors (malformed identifiers, invalid fields, unresolvable relations)
//   - 404: Resource not found errors
//   - 500: Unexpected internal errors, including store failures (default case)
//
// Don't forget to:
// 1. Add test cases to TestMapError (internal/daemon/api_server_test.go)
// 2. Update the documentation in internal/errors/errors.go
func mapError(logger hclog.Logger, err error) huma.StatusError {
	var fieldErr *errors.FieldError

	switch {
	case stdErrors.As(err, &fieldErr):
		return huma.Error400BadRequest("validation failed", fieldDetail(fieldErr))
	case stdErrors.Is(err, errors.ErrMalformedToken):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrIDMissing):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrRelationRequired):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrRelatedNotFound):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrBadRequest):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	default:
		logger.Error("Unexpected error handling request", "error", err)
		return huma.Error500InternalServerError("Internal server error", err)
	}
}

// fieldDetail converts a field error into the detail reported to clients.
// Only string values are echoed back, other values may not be representable in every response format.
func fieldDetail(fe *errors.FieldError) *huma.ErrorDetail {
	detail := &huma.ErrorDetail{
		Message:  fe.Err.Error(),
		Location: "body." + fe.Field,
	}
	if s, ok := fe.Value.(string); ok {
		detail.Value = s
	}
	return detail
}

// errorHandler wraps error handling for the application when converting to API friendly errors.
// Errors raised by huma itself (e.g. request validation) already carry a client status and are passed through,
// errors returned by handlers arrive as 500s and are mapped using the request's logger.
func errorHandler(ctx huma.Context, status int, msg string, errs ...error) huma.StatusError {
	if status != http.StatusInternalServerError {
		return huma.NewError(status, msg, errs...)
	}

	var err error
	switch len(errs) {
	case 0:
		// No errors provided; return a generic error.
		return huma.NewError(status, msg)
	case 1:
		// Single error; map it directly.
		err = errs[0]
	default:
		// Multiple errors; join them and map.
		err = stdErrors.Join(errs...)
	}

	logger := hclog.NewNullLogger()
	if ctx != nil {
		logger = loggerFromContext(ctx.Context())
		if errType, ok := api.ErrorTypeOf(err); ok {
			ctx.SetHeader(api.HeaderErrorType, string(errType))
		}
	}

	return mapError(logger, err)
}
