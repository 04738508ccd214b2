package types

import "time"

// HealthState is the coarse state of a storage backend connection.
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateUnhealthy HealthState = "unhealthy"
	HealthStateUnknown   HealthState = "unknown"
)

func (s HealthState) String() string {
	return string(s)
}

// HealthStatus is a point-in-time health observation.
type HealthStatus struct {
	State     HealthState `json:"state" yaml:"state"`
	Message   string      `json:"message,omitempty" yaml:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at" yaml:"checked_at"`
}

func newHealthStatus(state HealthState, message string) HealthStatus {
	return HealthStatus{State: state, Message: message, CheckedAt: time.Now()}
}

// Healthy reports a reachable component.
func Healthy(message string) HealthStatus {
	return newHealthStatus(HealthStateHealthy, message)
}

// Unhealthy reports an unreachable component; message carries the last error.
func Unhealthy(message string) HealthStatus {
	return newHealthStatus(HealthStateUnhealthy, message)
}

// UnknownHealth reports a component that has not been observed yet.
func UnknownHealth(message string) HealthStatus {
	return newHealthStatus(HealthStateUnknown, message)
}

func (h HealthStatus) IsHealthy() bool {
	return h.State == HealthStateHealthy
}

func (h HealthStatus) IsUnhealthy() bool {
	return h.State == HealthStateUnhealthy
}
