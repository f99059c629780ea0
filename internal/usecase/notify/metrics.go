package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the notify worker.
var (
	deliveryDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_delivery_dispatched_total",
			Help: "Total number of subscriber delivery attempts dispatched",
		},
		[]string{"host"},
	)

	deliverySentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_delivery_sent_total",
			Help: "Total number of subscriber deliveries by outcome",
		},
		[]string{"host", "status"}, // status: success|failure|dropped
	)

	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_delivery_duration_seconds",
			Help:    "Subscriber delivery duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"host"},
	)

	rateLimitWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_rate_limit_wait_seconds",
			Help:    "Time spent waiting for the per-host rate limiter",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"host"},
	)

	circuitBreakerOpenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_circuit_breaker_open_total",
			Help: "Total number of per-host circuit breaker open transitions",
		},
		[]string{"host"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_queue_depth",
			Help: "Current depth of the notify queue",
		},
	)

	activeWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_active_workers",
			Help: "Number of worker goroutines currently processing a job",
		},
	)
)

// RecordDispatch records a delivery attempt being sent to host.
func RecordDispatch(host string) {
	deliveryDispatchedTotal.WithLabelValues(host).Inc()
}

// RecordSuccess records a successful delivery.
func RecordSuccess(host string, duration time.Duration) {
	deliverySentTotal.WithLabelValues(host, "success").Inc()
	deliveryDuration.WithLabelValues(host).Observe(duration.Seconds())
}

// RecordFailure records a delivery attempt that will be retried.
func RecordFailure(host string, duration time.Duration) {
	deliverySentTotal.WithLabelValues(host, "failure").Inc()
	deliveryDuration.WithLabelValues(host).Observe(duration.Seconds())
}

// RecordDropped records a job dropped after exhausting its retry budget.
func RecordDropped(host string) {
	deliverySentTotal.WithLabelValues(host, "dropped").Inc()
}

// RecordCircuitBreakerOpen records a per-host circuit breaker tripping open.
func RecordCircuitBreakerOpen(host string) {
	circuitBreakerOpenTotal.WithLabelValues(host).Inc()
}

// RecordRateLimitWait records time spent waiting on the per-host limiter.
func RecordRateLimitWait(host string, wait time.Duration) {
	rateLimitWaitSeconds.WithLabelValues(host).Observe(wait.Seconds())
}

// SetQueueDepth sets the current notify queue depth gauge.
func SetQueueDepth(depth float64) {
	queueDepth.Set(depth)
}

// IncrementActiveWorkers increments the active-worker gauge by 1.
func IncrementActiveWorkers() {
	activeWorkers.Inc()
}

// DecrementActiveWorkers decrements the active-worker gauge by 1.
func DecrementActiveWorkers() {
	activeWorkers.Dec()
}
