// Package observability wires the ambient telemetry for memrouter processes:
// structured slog logging, OpenTelemetry tracing exported over OTLP/gRPC, and
// OpenTelemetry metrics exported either as a Prometheus scrape endpoint or
// pushed over OTLP/gRPC.
//
// Every constructor returns a working no-op when its section is disabled, so
// callers never branch on configuration:
//
//	tp, err := observability.InitTracing(ctx, cfg.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer observability.ShutdownTracing(context.Background(), tp)
//
//	m, err := observability.InitMetrics(ctx, cfg.Metrics)
//	if err != nil {
//	    return err
//	}
//	defer m.Shutdown(context.Background())
//
// Payload values are never logged by the router. Attribute keys that look like
// credentials are additionally redacted by the handlers built here.
package observability
