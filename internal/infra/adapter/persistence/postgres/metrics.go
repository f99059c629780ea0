package postgres

import (
	"context"
	"database/sql"
	"time"

	"pushhub/internal/observability/metrics"
)

// dbExecutor is the subset of *sql.DB every repository in this package
// calls. It is also implemented by *circuitbreaker.DBCircuitBreaker, so the
// composition root can hand repositories either a raw connection pool or a
// breaker-wrapped one without the repositories knowing the difference.
type dbExecutor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// timeOperation returns a func to be deferred at the top of a repository
// method; calling it records the elapsed time under the given operation name.
func timeOperation(operation string) func() {
	start := time.Now()
	return func() {
		metrics.RecordOperationDuration(operation, time.Since(start).Seconds())
	}
}
