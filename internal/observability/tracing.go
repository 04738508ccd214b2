package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"

	"github.com/zero-day-ai/memrouter/pkg/version"
)

const (
	defaultBatchTimeout = 5 * time.Second
	defaultServiceName  = "memrouter"
)

// TracingOption adjusts InitTracing.
type TracingOption func(*tracingOptions)

type tracingOptions struct {
	sampler      sdktrace.Sampler
	exporter     sdktrace.SpanExporter
	batchTimeout time.Duration
	setGlobal    bool
}

// WithSampler overrides the ratio sampler derived from SampleRate.
func WithSampler(sampler sdktrace.Sampler) TracingOption {
	return func(o *tracingOptions) {
		o.sampler = sampler
	}
}

// WithSpanExporter replaces the OTLP exporter, mainly for tests.
func WithSpanExporter(exporter sdktrace.SpanExporter) TracingOption {
	return func(o *tracingOptions) {
		o.exporter = exporter
	}
}

// WithBatchTimeout sets the maximum delay between span batches.
func WithBatchTimeout(timeout time.Duration) TracingOption {
	return func(o *tracingOptions) {
		o.batchTimeout = timeout
	}
}

// WithoutGlobal keeps the provider out of otel.SetTracerProvider.
func WithoutGlobal() TracingOption {
	return func(o *tracingOptions) {
		o.setGlobal = false
	}
}

// InitTracing builds a tracer provider for cfg. Disabled or noop tracing
// yields a provider with no span processors, which records nothing.
func InitTracing(ctx context.Context, cfg TracingConfig, opts ...TracingOption) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled || strings.ToLower(cfg.Provider) == "noop" {
		return sdktrace.NewTracerProvider(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, invalidConfig("tracing", err)
	}

	options := &tracingOptions{
		batchTimeout: defaultBatchTimeout,
		setGlobal:    true,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.sampler == nil {
		options.sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))
	}

	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	exporter := options.exporter
	if exporter == nil {
		exporter, err = newOTLPTraceExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(options.batchTimeout)),
		sdktrace.WithSampler(options.sampler),
		sdktrace.WithResource(res),
	)
	if options.setGlobal {
		otel.SetTracerProvider(tp)
	}
	return tp, nil
}

func newOTLPTraceExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	otlpOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	switch {
	case cfg.TLSCertFile != "":
		creds, err := credentials.NewClientTLSFromFile(cfg.TLSCertFile, "")
		if err != nil {
			return nil, NewExporterConnectionError(cfg.Endpoint, err)
		}
		otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(creds))
	case cfg.InsecureMode:
		otlpOpts = append(otlpOpts, otlptracegrpc.WithInsecure())
	default:
		otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(nil)))
	}

	exporter, err := otlptracegrpc.New(ctx, otlpOpts...)
	if err != nil {
		return nil, NewExporterConnectionError(cfg.Endpoint, err)
	}
	return exporter, nil
}

// newResource describes this process. resource.New is used instead of merging
// with resource.Default to avoid schema URL conflicts.
func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Version),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, invalidConfig("resource", err)
	}
	return res, nil
}

// ShutdownTracing flushes pending spans. ctx bounds how long the flush may take.
func ShutdownTracing(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}
	if err := provider.Shutdown(ctx); err != nil {
		return newShutdownError("tracer provider", err)
	}
	return nil
}
