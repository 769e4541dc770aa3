package domain

import "time"

const (
	HealthStatusOK          HealthStatus = "ok"
	HealthStatusTimeout     HealthStatus = "timeout"
	HealthStatusUnreachable HealthStatus = "unreachable"
	HealthStatusUnknown     HealthStatus = "unknown"
)

// HealthStatus is the outcome of a store health check.
type HealthStatus string

// Health records the most recent health check of the store.
type Health struct {
	Status         HealthStatus
	Latency        *time.Duration
	LastChecked    *time.Time
	LastSuccessful *time.Time
}
