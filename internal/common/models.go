package common

import "time"

// ComponentHealth tracks health of a dependency or a native service instance.
type ComponentHealth struct {
	Component     string    `json:"component"`
	Status        string    `json:"status"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	LatencyMs     int64     `json:"latency_ms"`
	Message       string    `json:"message,omitempty"`
}

// Health statuses
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusDegraded  = "degraded"
	HealthStatusUnhealthy = "unhealthy"
)
