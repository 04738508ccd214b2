package router

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultOperationTimeout bounds each backend call when none is configured.
const DefaultOperationTimeout = 10 * time.Second

// Option configures a Router.
type Option func(*Router)

// WithOperationTimeout bounds every individual backend insert or query.
func WithOperationTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.opTimeout = d
		}
	}
}

// WithProbeTimeout bounds every liveness probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.probeTimeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer sets the OpenTelemetry tracer used for write, read and backend spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Router) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithMeter sets the OpenTelemetry meter used for router metrics.
func WithMeter(meter metric.Meter) Option {
	return func(r *Router) {
		if meter != nil {
			r.meter = meter
		}
	}
}

// WithClock overrides the time source used for ingestion timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}
