package process

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewSweepMetrics(t *testing.T) {
	metrics := NewSweepMetrics()

	if metrics == nil {
		t.Fatal("NewSweepMetrics returned nil")
	}
	if metrics.ConfigMetrics == nil {
		t.Error("ConfigMetrics is nil")
	}
	if metrics.SweepRunsTotal == nil {
		t.Error("SweepRunsTotal is nil")
	}
	if metrics.SweepDurationSeconds == nil {
		t.Error("SweepDurationSeconds is nil")
	}
	if metrics.SweepTopicsProcessedTotal == nil {
		t.Error("SweepTopicsProcessedTotal is nil")
	}
	if metrics.SweepLastSuccessTimestamp == nil {
		t.Error("SweepLastSuccessTimestamp is nil")
	}
}

func TestSweepMetrics_RecordSweepRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_sweep_runs_total",
		Help: "Test counter",
	}, []string{"status"})
	reg.MustRegister(counter)

	metrics := &SweepMetrics{SweepRunsTotal: counter}

	metrics.RecordSweepRun("success")
	metrics.RecordSweepRun("success")
	metrics.RecordSweepRun("failure")

	successCount := testutil.ToFloat64(metrics.SweepRunsTotal.WithLabelValues("success"))
	if successCount != 2 {
		t.Errorf("expected success count 2, got %f", successCount)
	}
	failureCount := testutil.ToFloat64(metrics.SweepRunsTotal.WithLabelValues("failure"))
	if failureCount != 1 {
		t.Errorf("expected failure count 1, got %f", failureCount)
	}
}

func TestSweepMetrics_RecordSweepDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_sweep_duration_seconds",
		Help:    "Test histogram",
		Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
	})
	reg.MustRegister(histogram)

	metrics := &SweepMetrics{SweepDurationSeconds: histogram}

	metrics.RecordSweepDuration(10.5)
	metrics.RecordSweepDuration(120.0)
	metrics.RecordSweepDuration(600.0)

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "test_sweep_duration_seconds" {
			found = true
			if mf.GetMetric()[0].GetHistogram().GetSampleCount() != 3 {
				t.Errorf("expected 3 observations, got %d", mf.GetMetric()[0].GetHistogram().GetSampleCount())
			}
		}
	}
	if !found {
		t.Error("histogram metric not found in registry")
	}
}

func TestSweepMetrics_RecordTopicsProcessed(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_sweep_topics_processed_total",
		Help: "Test counter",
	})
	reg.MustRegister(counter)

	metrics := &SweepMetrics{SweepTopicsProcessedTotal: counter}

	metrics.RecordTopicsProcessed(10)
	metrics.RecordTopicsProcessed(25)
	metrics.RecordTopicsProcessed(0)

	total := testutil.ToFloat64(metrics.SweepTopicsProcessedTotal)
	if total != 35 {
		t.Errorf("expected total 35, got %f", total)
	}
}

func TestSweepMetrics_RecordLastSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_sweep_last_success_timestamp",
		Help: "Test gauge",
	})
	reg.MustRegister(gauge)

	metrics := &SweepMetrics{SweepLastSuccessTimestamp: gauge}

	initialValue := testutil.ToFloat64(metrics.SweepLastSuccessTimestamp)
	if initialValue != 0 {
		t.Errorf("expected initial value 0, got %f", initialValue)
	}

	metrics.RecordLastSuccess()

	afterValue := testutil.ToFloat64(metrics.SweepLastSuccessTimestamp)
	if afterValue <= 0 {
		t.Errorf("expected positive timestamp, got %f", afterValue)
	}
}

func TestSweepMetrics_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_sweep_runs_concurrent",
		Help: "Test counter",
	}, []string{"status"})
	reg.MustRegister(counter)

	feedsCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_sweep_topics_concurrent",
		Help: "Test counter",
	})
	reg.MustRegister(feedsCounter)

	metrics := &SweepMetrics{
		SweepRunsTotal:            counter,
		SweepTopicsProcessedTotal: feedsCounter,
	}

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			metrics.RecordSweepRun("success")
			metrics.RecordTopicsProcessed(1)
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	successCount := testutil.ToFloat64(metrics.SweepRunsTotal.WithLabelValues("success"))
	if successCount != 10 {
		t.Errorf("expected 10 successful runs, got %f", successCount)
	}
	totalTopics := testutil.ToFloat64(metrics.SweepTopicsProcessedTotal)
	if totalTopics != 10 {
		t.Errorf("expected 10 total topics, got %f", totalTopics)
	}
}
