package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/domain"
)

const (
	HealthStatusOK          HealthStatus = "ok"
	HealthStatusTimeout     HealthStatus = "timeout"
	HealthStatusUnreachable HealthStatus = "unreachable"
	HealthStatusUnknown     HealthStatus = "unknown"
)

// DomainHealth is a wrapper that allows receivers to be declared in the API package that deal with domain types.
type DomainHealth domain.Health

// HealthStatus represents the current status of the store when establishing its health.
type HealthStatus string

// Health is used to report the outcome of the latest store health check.
type Health struct {
	Status         HealthStatus `json:"status"`
	Latency        *string      `json:"latency,omitempty"`
	LastChecked    *time.Time   `json:"lastChecked,omitempty"`
	LastSuccessful *time.Time   `json:"lastSuccessful,omitempty"`
}

// HealthResponse is the response for GET /health.
// The status code is 503 unless the latest check succeeded.
type HealthResponse struct {
	Status int
	Body   Health
}

// ToAPIType can be used to convert a wrapped domain type to an API-safe type.
func (d DomainHealth) ToAPIType() (Health, error) {
	status, err := parseHealthStatus(d.Status)
	if err != nil {
		return Health{}, err
	}

	var latency *string
	if d.Latency != nil {
		s := d.Latency.String()
		latency = &s
	}

	return Health{
		Status:         status,
		Latency:        latency,
		LastChecked:    d.LastChecked,
		LastSuccessful: d.LastSuccessful,
	}, nil
}

// RegisterHealthRoutes sets up health-related API endpoint routes.
func RegisterHealthRoutes(routerAPI huma.API, monitor contracts.HealthMonitor, apiPathPrefix string) {
	healthAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Health"}

	huma.Register(
		healthAPI,
		huma.Operation{
			OperationID: "getHealth",
			Method:      http.MethodGet,
			Summary:     "Get the health of the store",
			Tags:        tags,
			Errors:      []int{http.StatusServiceUnavailable},
		},
		func(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
			return handleHealth(monitor)
		},
	)
}

// handleHealth is the handler for retrieving the latest store health check.
func handleHealth(monitor contracts.HealthMonitor) (*HealthResponse, error) {
	data, err := DomainHealth(monitor.Health()).ToAPIType()
	if err != nil {
		return nil, err
	}

	resp := &HealthResponse{Status: http.StatusOK, Body: data}
	if data.Status != HealthStatusOK {
		resp.Status = http.StatusServiceUnavailable
	}

	return resp, nil
}

func parseHealthStatus(status domain.HealthStatus) (HealthStatus, error) {
	switch status {
	case domain.HealthStatusOK:
		return HealthStatusOK, nil
	case domain.HealthStatusTimeout:
		return HealthStatusTimeout, nil
	case domain.HealthStatusUnreachable:
		return HealthStatusUnreachable, nil
	case domain.HealthStatusUnknown:
		return HealthStatusUnknown, nil
	default:
		return "", fmt.Errorf("unknown health status: %s", status)
	}
}
