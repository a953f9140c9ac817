// Package observability provides logging setup, Prometheus metrics, health
// checks, OpenTelemetry tracing and graceful shutdown for the CodeHub server.
//
// # Logging
//
// Build the process logger from configuration:
//
//	logger, err := observability.NewLogger("info", "json", os.Stderr)
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//	observability.RegisterMetricsEndpoint(router, registry)
//
// Domain counters:
//
//	metrics.RecordLogin("local", observability.ResultSuccess)
//	metrics.RecordRegistration(observability.ResultFailure)
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	observability.RegisterHealthRoutes(router, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "codehub",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
