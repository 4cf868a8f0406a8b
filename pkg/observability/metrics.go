package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Discovery metrics
	ScansTotal        prometheus.Counter
	ScanDuration      prometheus.Histogram
	PluginsDiscovered prometheus.Gauge
	PluginsLoaded     prometheus.Gauge

	// Lifecycle metrics
	LifecycleOperationsTotal *prometheus.CounterVec
	LifecycleDuration        *prometheus.HistogramVec

	// Compatibility metrics
	GateDecisionsTotal  *prometheus.CounterVec
	PackageQueriesTotal *prometheus.CounterVec

	// Sandbox metrics
	SandboxDenialsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tweaks_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tweaks_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Discovery metrics
		ScansTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tweaks_plugin_scans_total",
				Help: "Total number of plugin directory scans",
			},
		),
		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tweaks_plugin_scan_duration_seconds",
				Help:    "Plugin directory scan duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		PluginsDiscovered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tweaks_plugins_discovered",
				Help: "Number of plugins found by the last scan",
			},
		),
		PluginsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tweaks_plugins_loaded",
				Help: "Number of plugins currently registered",
			},
		),

		// Lifecycle metrics
		LifecycleOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tweaks_lifecycle_operations_total",
				Help: "Total number of plugin lifecycle operations",
			},
			[]string{"action", "status"},
		),
		LifecycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tweaks_lifecycle_duration_seconds",
				Help:    "Plugin lifecycle operation duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"action"},
		),

		// Compatibility metrics
		GateDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tweaks_gate_decisions_total",
				Help: "Total number of compatibility gate decisions",
			},
			[]string{"outcome"},
		),
		PackageQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tweaks_package_queries_total",
				Help: "Total number of rpm package queries",
			},
			[]string{"result"},
		),

		// Sandbox metrics
		SandboxDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tweaks_sandbox_denials_total",
				Help: "Total number of capability denials",
			},
			[]string{"capability"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ScansTotal,
		m.ScanDuration,
		m.PluginsDiscovered,
		m.PluginsLoaded,
		m.LifecycleOperationsTotal,
		m.LifecycleDuration,
		m.GateDecisionsTotal,
		m.PackageQueriesTotal,
		m.SandboxDenialsTotal,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// MetricsHandler returns the /metrics endpoint handler for a registry.
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
