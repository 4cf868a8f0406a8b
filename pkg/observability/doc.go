// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes observability infrastructure including logrus logging, metrics
// collection, health checks, and distributed tracing integration.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger("info", "json", nil)
//	logger.WithField("plugin", id).Info("Plugin loaded")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.LifecycleOperationsTotal.WithLabelValues("install", "success").Inc()
//	metrics.PluginsLoaded.Set(float64(count))
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker()
//	checker.AddCheck("state", func(ctx context.Context) error { ... })
//	status := checker.Check(ctx)
//
// # OpenTelemetry
//
// Initialize tracing:
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:        true,
//		ServiceName:    "tweaks-plugind",
//		ServiceVersion: "v1.0.0",
//		Endpoint:       "otel-collector:4317",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/platform: Metrics instrumentation points
package observability
