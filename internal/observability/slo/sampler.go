package slo

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// Sample reads the process's own http_requests_total and
// http_request_duration_seconds families back out of gatherer and updates
// the SLO gauges from them. It is the hub's only reader of its own request
// metrics; every other consumer of those families is an external scraper.
func Sample(gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}

	var total, errorCount float64
	var buckets []bucketCount

	for _, mf := range families {
		switch mf.GetName() {
		case "http_requests_total":
			for _, m := range mf.GetMetric() {
				count := m.GetCounter().GetValue()
				total += count
				if statusIs5xx(m) {
					errorCount += count
				}
			}
		case "http_request_duration_seconds":
			for _, m := range mf.GetMetric() {
				buckets = append(buckets, collectBuckets(m.GetHistogram())...)
			}
		}
	}

	if total > 0 {
		UpdateAvailability((total - errorCount) / total)
		UpdateErrorRate(errorCount / total)
	}

	if p95, ok := quantileFromBuckets(buckets, 0.95); ok {
		UpdateLatencyP95(p95)
	}
	if p99, ok := quantileFromBuckets(buckets, 0.99); ok {
		UpdateLatencyP99(p99)
	}

	return nil
}

// RunSampler samples every interval until ctx is canceled.
func RunSampler(ctx context.Context, gatherer prometheus.Gatherer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := Sample(gatherer); err != nil {
				slog.Warn("slo sample failed", slog.Any("error", err))
			}
		}
	}
}

func statusIs5xx(m *io_prometheus_client.Metric) bool {
	for _, label := range m.GetLabel() {
		if label.GetName() == "status" && len(label.GetValue()) == 3 && label.GetValue()[0] == '5' {
			return true
		}
	}
	return false
}

type bucketCount struct {
	upperBound float64
	cumulative float64
}

func collectBuckets(h *io_prometheus_client.Histogram) []bucketCount {
	out := make([]bucketCount, 0, len(h.GetBucket()))
	for _, b := range h.GetBucket() {
		out = append(out, bucketCount{upperBound: b.GetUpperBound(), cumulative: float64(b.GetCumulativeCount())})
	}
	return out
}

// quantileFromBuckets estimates a quantile across possibly-multiple label
// combinations' buckets merged by upper bound, linearly interpolating within
// the bucket that first reaches the target rank (the same approximation
// Prometheus's own histogram_quantile uses).
func quantileFromBuckets(buckets []bucketCount, q float64) (float64, bool) {
	if len(buckets) == 0 {
		return 0, false
	}

	merged := make(map[float64]float64)
	for _, b := range buckets {
		merged[b.upperBound] += b.cumulative
	}

	bounds := make([]float64, 0, len(merged))
	for bound := range merged {
		bounds = append(bounds, bound)
	}
	sort.Float64s(bounds)

	total := merged[bounds[len(bounds)-1]]
	if total == 0 {
		return 0, false
	}

	target := q * total
	var prevBound, prevCount float64
	for _, bound := range bounds {
		count := merged[bound]
		if count >= target {
			if bound == prevBound {
				return bound, true
			}
			span := bound - prevBound
			fraction := (target - prevCount) / (count - prevCount)
			return prevBound + fraction*span, true
		}
		prevBound, prevCount = bound, count
	}

	return bounds[len(bounds)-1], true
}
