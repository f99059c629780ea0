// Package metrics provides Prometheus metrics for the storage layer: query
// duration by operation and connection pool occupancy.
//
// All metrics are automatically registered with the Prometheus default
// registry and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "pushhub/internal/observability/metrics"
//
//	func (r *TopicRepo) Get(ctx context.Context, url string) (*entity.Topic, error) {
//	    start := time.Now()
//	    defer func() { metrics.RecordOperationDuration("topic_get", time.Since(start).Seconds()) }()
//	    // ... query ...
//	}
package metrics
