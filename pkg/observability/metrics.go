package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for the domain counters
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Account metrics
	LoginsTotal        *prometheus.CounterVec
	RegistrationsTotal *prometheus.CounterVec
	SSOCallbacksTotal  *prometheus.CounterVec
	SessionsCreated    prometheus.Counter
	SessionsDestroyed  prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codehub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codehub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codehub_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codehub_logins_total",
				Help: "Login attempts by method (local or provider) and result",
			},
			[]string{"method", "result"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codehub_registrations_total",
				Help: "Local registration attempts by result",
			},
			[]string{"result"},
		),
		SSOCallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codehub_sso_callbacks_total",
				Help: "Provider callbacks by provider and result",
			},
			[]string{"provider", "result"},
		),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codehub_sessions_created_total",
			Help: "Sessions established",
		}),
		SessionsDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codehub_sessions_destroyed_total",
			Help: "Sessions destroyed by logout or password change",
		}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.LoginsTotal,
		m.RegistrationsTotal,
		m.SSOCallbacksTotal,
		m.SessionsCreated,
		m.SessionsDestroyed,
	)

	return m
}

// The Record helpers accept a nil receiver so callers can run without metrics.

// RecordLogin counts a login attempt
func (m *Metrics) RecordLogin(method, result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(method, result).Inc()
}

// RecordRegistration counts a registration attempt
func (m *Metrics) RecordRegistration(result string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(result).Inc()
}

// RecordSSOCallback counts a provider callback
func (m *Metrics) RecordSSOCallback(provider, result string) {
	if m == nil {
		return
	}
	m.SSOCallbacksTotal.WithLabelValues(provider, result).Inc()
}

// RecordSessionCreated counts an established session
func (m *Metrics) RecordSessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

// RecordSessionDestroyed counts a destroyed session
func (m *Metrics) RecordSessionDestroyed() {
	if m == nil {
		return
	}
	m.SessionsDestroyed.Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel returns the matched route template so label cardinality stays
// bounded
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// Install it with Router.Use so the matched route is known.
func HTTPMetricsMiddleware(metrics *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(router *mux.Router, registry *prometheus.Registry) {
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}
