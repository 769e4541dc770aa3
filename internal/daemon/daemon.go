package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/mozilla-ai/bookstore/internal/domain"
)

// Daemon serves the API and keeps track of the health of the store behind it.
// NewDaemon should be used to create instances of Daemon.
type Daemon struct {
	apiServer           *APIServer
	logger              hclog.Logger
	healthTracker       *HealthTracker
	healthCheckInterval time.Duration
	healthCheckTimeout  time.Duration
}

// NewDaemon creates a new Daemon with the provided dependencies and options.
func NewDaemon(deps Dependencies, opt ...Option) (*Daemon, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for daemon: %w", err)
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid daemon options: %w", err)
	}

	healthTracker, err := NewHealthTracker(deps.HealthChecker)
	if err != nil {
		return nil, err
	}

	apiDeps, err := NewAPIDependencies(
		deps.Logger,
		deps.Codec,
		healthTracker,
		deps.Authors,
		deps.Books,
		deps.APIAddr,
	)
	if err != nil {
		return nil, err
	}

	apiServer, err := NewAPIServer(apiDeps, opts.APIOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon API server: %w", err)
	}

	return &Daemon{
		apiServer:           apiServer,
		logger:              deps.Logger.Named("daemon"),
		healthTracker:       healthTracker,
		healthCheckInterval: opts.HealthCheckInterval,
		healthCheckTimeout:  opts.HealthCheckTimeout,
	}, nil
}

// StartAndManage checks the store, then serves the API while monitoring store health.
// It blocks until the context is canceled or the API server fails.
func (d *Daemon) StartAndManage(ctx context.Context) error {
	if h := d.healthTracker.Check(ctx, d.healthCheckTimeout); h.Status != domain.HealthStatusOK {
		d.logger.Warn("Store is not healthy at startup", "status", h.Status)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.healthCheckLoop(gctx)
		return nil
	})

	g.Go(func() error {
		return d.apiServer.Start(gctx)
	})

	return g.Wait()
}

// healthCheckLoop periodically checks the store until ctx is canceled, logging changes in status.
func (d *Daemon) healthCheckLoop(ctx context.Context) {
	ticker := time.NewTicker(d.healthCheckInterval)
	defer ticker.Stop()

	previous := d.healthTracker.Health().Status

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Stopping store health checks")
			return
		case <-ticker.C:
			h := d.healthTracker.Check(ctx, d.healthCheckTimeout)
			if h.Status == previous {
				d.logger.Trace("Store health unchanged", "status", h.Status)
				continue
			}

			if h.Status == domain.HealthStatusOK {
				d.logger.Info("Store health recovered", "previous", previous)
			} else {
				d.logger.Warn("Store health degraded", "status", h.Status, "previous", previous)
			}
			previous = h.Status
		}
	}
}
