package process

import (
	"pushhub/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SweepMetrics provides Prometheus metrics for the hub's background sweep —
// the periodic only_failed re-fetch pass (SPEC_FULL §4.7). It embeds the
// standard ConfigMetrics for configuration monitoring and adds sweep-specific
// execution metrics.
type SweepMetrics struct {
	*config.ConfigMetrics

	// SweepRunsTotal counts sweep runs by status (success/failure).
	SweepRunsTotal *prometheus.CounterVec

	// SweepDurationSeconds measures how long a sweep pass took.
	SweepDurationSeconds prometheus.Histogram

	// SweepTopicsProcessedTotal counts topics re-fetched across all sweeps.
	SweepTopicsProcessedTotal prometheus.Counter

	// SweepLastSuccessTimestamp records the Unix timestamp of the last
	// successful sweep.
	SweepLastSuccessTimestamp prometheus.Gauge
}

// NewSweepMetrics creates a new SweepMetrics instance with all metrics
// initialized and registered via promauto.
func NewSweepMetrics() *SweepMetrics {
	return &SweepMetrics{
		ConfigMetrics: config.NewConfigMetrics("hub"),

		SweepRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pushhub_sweep_runs_total",
			Help: "Total number of failed-topic sweep runs by status (success/failure)",
		}, []string{"status"}),

		SweepDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pushhub_sweep_duration_seconds",
			Help:    "Duration of a failed-topic sweep pass in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		SweepTopicsProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pushhub_sweep_topics_processed_total",
			Help: "Total number of topics re-fetched across all sweep runs",
		}),

		SweepLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pushhub_sweep_last_success_timestamp",
			Help: "Unix timestamp of the last successful sweep run",
		}),
	}
}

// RecordSweepRun increments the sweep run counter for the given status.
func (m *SweepMetrics) RecordSweepRun(status string) {
	m.SweepRunsTotal.WithLabelValues(status).Inc()
}

// RecordSweepDuration observes the duration of a sweep pass in seconds.
func (m *SweepMetrics) RecordSweepDuration(seconds float64) {
	m.SweepDurationSeconds.Observe(seconds)
}

// RecordTopicsProcessed adds the number of topics processed to the total counter.
func (m *SweepMetrics) RecordTopicsProcessed(count int) {
	m.SweepTopicsProcessedTotal.Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful sweep completion.
func (m *SweepMetrics) RecordLastSuccess() {
	m.SweepLastSuccessTimestamp.SetToCurrentTime()
}
