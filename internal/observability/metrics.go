package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const defaultExportInterval = 30 * time.Second

// Metrics bundles a meter provider with whatever the chosen provider needs to
// expose or flush it.
type Metrics struct {
	provider metric.MeterProvider
	registry *prometheus.Registry
	shutdown func(context.Context) error
}

// MeterProvider returns the provider instruments are created from.
func (m *Metrics) MeterProvider() metric.MeterProvider {
	return m.provider
}

// Meter is shorthand for MeterProvider().Meter(name).
func (m *Metrics) Meter(name string) metric.Meter {
	return m.provider.Meter(name)
}

// Registry is non-nil only for the prometheus provider. Callers may register
// additional collectors on it.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the scrape endpoint, or nil when metrics are not pulled.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.shutdown == nil {
		return nil
	}
	if err := m.shutdown(ctx); err != nil {
		return newShutdownError("meter provider", err)
	}
	return nil
}

// InitMetrics builds the meter provider for cfg. Disabled metrics yield a
// noop provider and no handler.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{provider: noop.NewMeterProvider()}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, invalidConfig("metrics", err)
	}

	res, err := newResource(ctx, defaultServiceName)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Provider) {
	case "prometheus":
		return initPrometheusProvider(res)
	default:
		return initOTLPProvider(ctx, cfg, res)
	}
}

// initPrometheusProvider uses a private registry so tests and multiple
// providers in one process do not collide on the default registerer.
func initPrometheusProvider(res *resource.Resource) (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, invalidConfig("prometheus exporter", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	return &Metrics{
		provider: provider,
		registry: registry,
		shutdown: provider.Shutdown,
	}, nil
}

func initOTLPProvider(ctx context.Context, cfg MetricsConfig, res *resource.Resource) (*Metrics, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.InsecureMode {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, NewExporterConnectionError(cfg.Endpoint, err)
	}

	interval := cfg.ExportInterval
	if interval == 0 {
		interval = defaultExportInterval
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	return &Metrics{
		provider: provider,
		shutdown: provider.Shutdown,
	}, nil
}

// ObserveBackendHealth registers the memrouter.backend.alive gauge, reporting
// 1 for each backend snapshot marks alive and 0 otherwise.
func ObserveBackendHealth(meter metric.Meter, snapshot func() map[string]bool) error {
	_, err := meter.Int64ObservableGauge("memrouter.backend.alive",
		metric.WithDescription("1 when the backend answered its last probe or operation"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			for id, alive := range snapshot() {
				var v int64
				if alive {
					v = 1
				}
				o.Observe(v, metric.WithAttributes(attribute.String("memrouter.backend", id)))
			}
			return nil
		}),
	)
	return err
}
