package daemon

import (
	"context"
	stdErrors "errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/domain"
)

var _ contracts.HealthMonitor = (*HealthTracker)(nil)

// HealthTracker records the health of the store, as observed by periodic checks.
// NewHealthTracker should be used to create instances of HealthTracker.
type HealthTracker struct {
	checker contracts.HealthChecker

	mu      sync.RWMutex
	current domain.Health
}

// NewHealthTracker returns a HealthTracker which checks the store through checker.
// The status is unknown until the first check completes.
func NewHealthTracker(checker contracts.HealthChecker) (*HealthTracker, error) {
	if checker == nil || reflect.ValueOf(checker).IsNil() {
		return nil, fmt.Errorf("health checker cannot be nil")
	}

	return &HealthTracker{
		checker: checker,
		current: domain.Health{Status: domain.HealthStatusUnknown},
	}, nil
}

// Health returns the most recent health record.
func (h *HealthTracker) Health() domain.Health {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.current
}

// Check pings the store, waiting at most timeout, and records the outcome.
func (h *HealthTracker) Check(ctx context.Context, timeout time.Duration) domain.Health {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := h.checker.Ping(pingCtx)
	latency := time.Since(start)

	switch {
	case err == nil:
		return h.Update(domain.HealthStatusOK, &latency)
	case stdErrors.Is(err, context.DeadlineExceeded):
		return h.Update(domain.HealthStatusTimeout, nil)
	default:
		return h.Update(domain.HealthStatusUnreachable, nil)
	}
}

// Update records a health check.
// The current time is recorded as LastChecked, and LastSuccessful is updated only if status is HealthStatusOK.
// Latency can be nil if the ping failed or was not measured.
func (h *HealthTracker) Update(status domain.HealthStatus, latency *time.Duration) domain.Health {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now().UTC()

	lastSuccessful := h.current.LastSuccessful
	if status == domain.HealthStatusOK {
		lastSuccessful = &now
	}

	h.current = domain.Health{
		Status:         status,
		Latency:        latency,
		LastChecked:    &now,
		LastSuccessful: lastSuccessful,
	}

	return h.current
}
