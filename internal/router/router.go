package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/zero-day-ai/memrouter/internal/backend"
	"github.com/zero-day-ai/memrouter/internal/governance"
	"github.com/zero-day-ai/memrouter/internal/health"
	"github.com/zero-day-ai/memrouter/internal/lockmgr"
	"github.com/zero-day-ai/memrouter/internal/tier"
	"github.com/zero-day-ai/memrouter/internal/types"
)

// Router coordinates writes and reads across the two backends. A Router owns
// all of its mutable state (liveness flags and the lock registry) and is safe
// for concurrent use by many callers.
type Router struct {
	classifier *tier.Classifier
	gate       *governance.Gate
	backends   map[backend.ID]backend.Backend
	monitor    *health.Monitor
	locks      *lockmgr.Manager
	policies   map[tier.Tier]policy

	opTimeout    time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
	tracer       trace.Tracer
	meter        metric.Meter
	metrics      *routerMetrics
	now          func() time.Time
}

// New creates a Router. It fails if a collaborator is missing or if any tier
// known to the classifier has no write policy, so a misconfigured router is
// rejected at startup rather than on the first write.
func New(classifier *tier.Classifier, gate *governance.Gate, primary, secondary backend.Backend, opts ...Option) (*Router, error) {
	switch {
	case classifier == nil:
		return nil, NewInvalidRouterError("classifier is required")
	case gate == nil:
		return nil, NewInvalidRouterError("governance gate is required")
	case primary == nil:
		return nil, NewInvalidRouterError("primary backend is required")
	case secondary == nil:
		return nil, NewInvalidRouterError("secondary backend is required")
	}

	r := &Router{
		classifier: classifier,
		gate:       gate,
		backends: map[backend.ID]backend.Backend{
			backend.Primary:   primary,
			backend.Secondary: secondary,
		},
		locks:        lockmgr.New(),
		opTimeout:    DefaultOperationTimeout,
		probeTimeout: health.DefaultProbeTimeout,
		logger:       slog.Default(),
		tracer:       tracenoop.NewTracerProvider().Tracer("memrouter"),
		meter:        metricnoop.NewMeterProvider().Meter("memrouter"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	policies, err := policiesFor(classifier.Tiers())
	if err != nil {
		return nil, err
	}
	r.policies = policies

	r.monitor = health.NewMonitor(map[backend.ID]backend.Prober{
		backend.Primary:   primary,
		backend.Secondary: secondary,
	},
		health.WithProbeTimeout(r.probeTimeout),
		health.WithLogger(r.logger),
		health.WithClock(r.now),
	)
	r.metrics = newRouterMetrics(r.meter, r.logger)

	return r, nil
}

// Start performs the initial probe of both backends, moving them out of the
// Unknown state. It never fails: an unreachable backend simply starts Dead.
func (r *Router) Start(ctx context.Context) HealthSnapshot {
	alive := r.monitor.ProbeAll(ctx)
	snap := HealthSnapshot{
		Primary:   alive[backend.Primary],
		Secondary: alive[backend.Secondary],
	}
	r.logger.InfoContext(ctx, "memory router started",
		"primary_alive", snap.Primary,
		"secondary_alive", snap.Secondary,
	)
	return snap
}

// HealthSnapshot returns the cached liveness of both backends without I/O.
func (r *Router) HealthSnapshot() HealthSnapshot {
	return HealthSnapshot{
		Primary:   r.monitor.IsAlive(backend.Primary),
		Secondary: r.monitor.IsAlive(backend.Secondary),
	}
}

// Monitor exposes the health monitor for diagnostics.
func (r *Router) Monitor() *health.Monitor {
	return r.monitor
}

// Classifier returns the router's tier classifier.
func (r *Router) Classifier() *tier.Classifier {
	return r.classifier
}

// Write persists payload under resource according to the resource's tier.
func (r *Router) Write(ctx context.Context, resource string, payload governance.Payload) WriteResult {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "memrouter.write",
		trace.WithAttributes(attribute.String("memrouter.resource", resource)))
	defer span.End()

	res := r.write(ctx, resource, payload)

	r.metrics.recordWrite(ctx, res, time.Since(start))
	endWriteSpan(span, res)
	r.logWrite(ctx, res)
	return res
}

func (r *Router) write(ctx context.Context, resource string, payload governance.Payload) WriteResult {
	res := newWriteResult(resource)

	t, err := r.classifier.Classify(resource)
	if err != nil {
		res.Code = ErrCodeUnknownResource
		res.Reason = reasonOf(err)
		return res
	}
	res.Tier = t

	clean := governance.StripReserved(payload)
	if v := r.gate.Validate(clean); !v.Allowed {
		res.Code = types.CodeOf(v.Err())
		res.Reason = fmt.Sprintf("%s: %s", v.Rule, v.Reason)
		return res
	}

	record, sum, err := governance.Enrich(clean, t, r.now())
	if err != nil {
		res.Code = types.CodeOf(err)
		res.Reason = reasonOf(err)
		return res
	}
	res.Checksum = sum

	op := &writeOp{
		resource: resource,
		tier:     t,
		checksum: sum,
		record:   record,
	}
	apply := r.policies[t]

	out, err := lockmgr.WithLock(ctx, r.locks, resource, func() WriteResult {
		return apply(ctx, r, op)
	})
	if err != nil {
		res.Code = ErrCodeLockCancelled
		res.Reason = reasonOf(err)
		return res
	}
	return out
}

// Read returns records stored under resource that match filter. Reads are
// only ever served by the primary store.
func (r *Router) Read(ctx context.Context, resource string, filter map[string]any) ReadResult {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "memrouter.read",
		trace.WithAttributes(attribute.String("memrouter.resource", resource)))
	defer span.End()

	res := r.read(ctx, resource, filter)

	r.metrics.recordRead(ctx, res, time.Since(start))
	endReadSpan(span, res)
	return res
}

func (r *Router) read(ctx context.Context, resource string, filter map[string]any) ReadResult {
	res := ReadResult{Resource: resource}

	t, err := r.classifier.Classify(resource)
	if err != nil {
		res.Code = ErrCodeUnknownResource
		res.Reason = reasonOf(err)
		return res
	}
	res.Tier = t

	if err := backend.ValidateFilter(filter); err != nil {
		res.Code = ErrCodeBackendOperationFailed
		res.Reason = reasonOf(err)
		return res
	}

	if !r.monitor.EnsureAlive(ctx, backend.Primary) {
		res.Code = ErrCodeBackendUnavailable
		res.Reason = "read unavailable: primary backend offline"
		return res
	}
	res.Backend = backend.Primary

	err = r.call(ctx, backend.Primary, "query", t, func(ctx context.Context, b backend.Backend) error {
		rows, err := b.Query(ctx, resource, filter)
		res.Rows = rows
		return err
	})
	if err != nil {
		res.Rows = nil
		res.Code = ErrCodeBackendOperationFailed
		res.Reason = reasonOf(err)
		return res
	}

	if res.Rows == nil {
		res.Rows = []map[string]any{}
	}
	res.Success = true
	return res
}

// call runs fn against backend id with the per-operation timeout and a
// backend span. Any failure marks the backend dead unless the caller's own
// context ended first.
func (r *Router) call(ctx context.Context, id backend.ID, op string, t tier.Tier, fn func(context.Context, backend.Backend) error) error {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "memrouter.backend."+op,
		trace.WithAttributes(
			attribute.String("memrouter.backend", id.String()),
			attribute.String("memrouter.tier", t.String()),
		))
	defer span.End()

	opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	err := fn(opCtx, r.backends[id])
	r.metrics.recordBackend(ctx, id, op, err, time.Since(start))
	endBackendSpan(span, err)

	if err != nil {
		if ctx.Err() == nil {
			r.monitor.MarkDead(id, err)
		}
		return err
	}
	return nil
}

func (r *Router) logWrite(ctx context.Context, res WriteResult) {
	attrs := []any{
		"resource", res.Resource,
		"tier", res.Tier.String(),
		"checksum", res.Checksum,
		"primary", string(res.Primary.Status),
		"secondary", string(res.Secondary.Status),
	}
	switch {
	case res.Success:
		r.logger.DebugContext(ctx, "memory write committed", attrs...)
	case res.Code == ErrCodePartialTierFailure:
		r.logger.ErrorContext(ctx, "memory write partially applied", append(attrs, "code", string(res.Code), "reason", res.Reason)...)
	default:
		r.logger.WarnContext(ctx, "memory write failed", append(attrs, "code", string(res.Code), "reason", res.Reason)...)
	}
}
