package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics
var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	// Hub domain metrics.
	topicsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pushhub_topics_total",
			Help: "Total number of topics known to the hub",
		},
	)

	publishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushhub_publish_total",
			Help: "Total number of publish notifications received",
		},
		[]string{"status"},
	)

	verificationOutcomeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushhub_verification_outcome_total",
			Help: "Total number of subscription verification handshakes by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	fetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pushhub_fetch_duration_seconds",
			Help:    "Time taken to fetch and diff a topic's content",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	fetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushhub_fetch_errors_total",
			Help: "Total number of topic fetch failures by reason",
		},
		[]string{"reason"},
	)
)

// responseWriter wraps http.ResponseWriter to record status code and response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// MetricsMiddleware records HTTP request metrics including duration, size, and status codes.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		activeConnections.Inc()
		defer activeConnections.Dec()

		path := r.URL.Path

		if r.ContentLength > 0 {
			httpRequestSize.WithLabelValues(r.Method, path).Observe(float64(r.ContentLength))
		}

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		start := time.Now()
		next.ServeHTTP(rw, r)
		duration := time.Since(start).Seconds()

		status := strconv.Itoa(rw.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
		httpResponseSize.WithLabelValues(r.Method, path).Observe(float64(rw.size))
	})
}

// MetricsHandler returns an HTTP handler for the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordPublish records the outcome of a publish notification.
func RecordPublish(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	publishTotal.WithLabelValues(status).Inc()
}

// RecordVerificationOutcome records the outcome of a subscribe/unsubscribe
// verification handshake.
func RecordVerificationOutcome(mode string, verified bool) {
	outcome := "verified"
	if !verified {
		outcome = "declined"
	}
	verificationOutcomeTotal.WithLabelValues(mode, outcome).Inc()
}

// RecordFetchDuration records how long a topic fetch-and-diff pass took.
func RecordFetchDuration(duration time.Duration) {
	fetchDuration.Observe(duration.Seconds())
}

// RecordFetchError records a topic fetch failure by reason ("transport" or "invalid_content").
func RecordFetchError(reason string) {
	fetchErrorsTotal.WithLabelValues(reason).Inc()
}

// UpdateTopicsTotal updates the gauge tracking how many topics the hub knows about.
func UpdateTopicsTotal(count int) {
	topicsTotal.Set(float64(count))
}

