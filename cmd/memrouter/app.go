package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/zero-day-ai/memrouter/internal/backend/graphstore"
	"github.com/zero-day-ai/memrouter/internal/backend/sqlstore"
	"github.com/zero-day-ai/memrouter/internal/config"
	"github.com/zero-day-ai/memrouter/internal/governance"
	"github.com/zero-day-ai/memrouter/internal/graph"
	"github.com/zero-day-ai/memrouter/internal/observability"
	"github.com/zero-day-ai/memrouter/internal/router"
	"github.com/zero-day-ai/memrouter/internal/tier"
)

const instrumentationName = "github.com/zero-day-ai/memrouter"

// app is a fully wired router plus everything it owns.
type app struct {
	router    *router.Router
	primary   *sqlstore.Store
	secondary *graphstore.Store
	tracing   *sdktrace.TracerProvider
	metrics   *observability.Metrics
}

// newApp opens both stores and builds the router. It does not probe; callers
// decide whether to Start.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	classifier, err := tier.NewClassifier(cfg.Tiers.Membership())
	if err != nil {
		return nil, err
	}
	gate, err := governance.NewGate(cfg.Governance)
	if err != nil {
		return nil, err
	}

	a := &app{}
	if err := a.open(ctx, cfg, logger); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	a.router, err = router.New(classifier, gate, a.primary, a.secondary,
		router.WithOperationTimeout(cfg.Router.OperationTimeout),
		router.WithProbeTimeout(cfg.Router.ProbeTimeout),
		router.WithLogger(logger),
		router.WithTracer(a.tracing.Tracer(instrumentationName)),
		router.WithMeter(a.metrics.Meter(instrumentationName)),
	)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

// open fills in the stores and telemetry providers. Whatever was opened
// before a failure stays set so Close can release it.
func (a *app) open(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Primary.Path), 0o700); err != nil {
		return err
	}
	primary, err := sqlstore.Open(ctx, cfg.Primary, sqlstore.WithLogger(logger))
	if err != nil {
		return err
	}
	a.primary = primary

	client, err := graph.NewNeo4jClient(cfg.Secondary)
	if err != nil {
		return err
	}
	a.secondary = graphstore.New(client, graphstore.WithLogger(logger))

	if a.tracing, err = observability.InitTracing(ctx, cfg.Tracing); err != nil {
		return err
	}
	if a.metrics, err = observability.InitMetrics(ctx, cfg.Metrics); err != nil {
		return err
	}
	return nil
}

// Close releases both stores and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.secondary != nil {
		errs = append(errs, a.secondary.Close(ctx))
	}
	if a.primary != nil {
		errs = append(errs, a.primary.Close())
	}
	if a.metrics != nil {
		errs = append(errs, a.metrics.Shutdown(ctx))
	}
	if a.tracing != nil {
		errs = append(errs, observability.ShutdownTracing(ctx, a.tracing))
	}
	return errors.Join(errs...)
}

// withApp builds the app for the loaded config, runs fn and closes the app.
func (c *cli) withApp(ctx context.Context, fn func(*app) error) error {
	a, err := newApp(ctx, c.cfg, c.log())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil {
			c.log().Warn("failed to close router", "error", cerr)
		}
	}()
	return fn(a)
}
