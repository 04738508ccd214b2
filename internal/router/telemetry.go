package router

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/memrouter/internal/backend"
)

// routerMetrics holds the router's OpenTelemetry instruments. Instruments
// that fail to register are left nil and silently skipped.
type routerMetrics struct {
	writes         metric.Int64Counter
	reads          metric.Int64Counter
	writeLatency   metric.Float64Histogram
	backendLatency metric.Float64Histogram
}

func newRouterMetrics(meter metric.Meter, logger *slog.Logger) *routerMetrics {
	m := &routerMetrics{}
	var err error

	if m.writes, err = meter.Int64Counter("memrouter.writes",
		metric.WithDescription("Memory writes by tier and outcome")); err != nil {
		logger.Warn("failed to create metric", "name", "memrouter.writes", "error", err)
	}
	if m.reads, err = meter.Int64Counter("memrouter.reads",
		metric.WithDescription("Memory reads by tier and outcome")); err != nil {
		logger.Warn("failed to create metric", "name", "memrouter.reads", "error", err)
	}
	if m.writeLatency, err = meter.Float64Histogram("memrouter.write.latency",
		metric.WithDescription("End-to-end write latency"),
		metric.WithUnit("ms")); err != nil {
		logger.Warn("failed to create metric", "name", "memrouter.write.latency", "error", err)
	}
	if m.backendLatency, err = meter.Float64Histogram("memrouter.backend.latency",
		metric.WithDescription("Latency of individual backend operations"),
		metric.WithUnit("ms")); err != nil {
		logger.Warn("failed to create metric", "name", "memrouter.backend.latency", "error", err)
	}
	return m
}

func outcome(success bool, code string) string {
	if success {
		return "ok"
	}
	return code
}

func (m *routerMetrics) recordWrite(ctx context.Context, res WriteResult, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("memrouter.tier", res.Tier.String()),
		attribute.String("memrouter.outcome", outcome(res.Success, string(res.Code))),
	)
	if m.writes != nil {
		m.writes.Add(ctx, 1, attrs)
	}
	if m.writeLatency != nil {
		m.writeLatency.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
	}
}

func (m *routerMetrics) recordRead(ctx context.Context, res ReadResult, _ time.Duration) {
	if m.reads == nil {
		return
	}
	m.reads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("memrouter.tier", res.Tier.String()),
		attribute.String("memrouter.outcome", outcome(res.Success, string(res.Code))),
	))
}

func (m *routerMetrics) recordBackend(ctx context.Context, id backend.ID, op string, err error, elapsed time.Duration) {
	if m.backendLatency == nil {
		return
	}
	m.backendLatency.Record(ctx, float64(elapsed)/float64(time.Millisecond), metric.WithAttributes(
		attribute.String("memrouter.backend", id.String()),
		attribute.String("memrouter.operation", op),
		attribute.Bool("memrouter.error", err != nil),
	))
}

func endWriteSpan(span trace.Span, res WriteResult) {
	span.SetAttributes(
		attribute.String("memrouter.tier", res.Tier.String()),
		attribute.String("memrouter.primary", string(res.Primary.Status)),
		attribute.String("memrouter.secondary", string(res.Secondary.Status)),
	)
	if res.Checksum != "" {
		span.SetAttributes(attribute.String("memrouter.checksum", res.Checksum))
	}
	if res.Success {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetAttributes(attribute.String("memrouter.code", string(res.Code)))
	span.SetStatus(codes.Error, res.Reason)
}

func endReadSpan(span trace.Span, res ReadResult) {
	span.SetAttributes(
		attribute.String("memrouter.tier", res.Tier.String()),
		attribute.Int("memrouter.rows", len(res.Rows)),
	)
	if res.Success {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetAttributes(attribute.String("memrouter.code", string(res.Code)))
	span.SetStatus(codes.Error, res.Reason)
}

func endBackendSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
