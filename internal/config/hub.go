// Package config holds the hub process's runtime configuration: the
// fail-open environment loading pattern from internal/pkg/config, applied to
// the settings the hub composition root needs (database, queue, fetch
// concurrency, cron schedule, server ports).
package config

import (
	"fmt"
	"log/slog"

	pkgconfig "pushhub/internal/pkg/config"
)

// HubConfig holds every environment-tunable setting the hub process reads at
// startup. All fields have safe defaults; LoadFromEnv never fails, it falls
// back to the default and logs a warning for any field that fails
// validation.
type HubConfig struct {
	// DatabaseURL is the Postgres DSN passed to pgx/stdlib.
	DatabaseURL string
	// RedisURL is the notify queue's Redis connection string.
	RedisURL string
	// NotifyQueueKey is the Redis list key the queue lives under.
	NotifyQueueKey string

	// HubURL is this hub's own externally-reachable base URL, presented in
	// the User-Agent header on content fetch.
	HubURL string

	// FetchParallelism bounds concurrent topic fetches per publish/sweep.
	FetchParallelism int
	// NotifyWorkerConcurrency bounds concurrent notify-queue drain workers.
	NotifyWorkerConcurrency int
	// NotifyMaxTries is the retry budget assigned to a freshly-enqueued job.
	NotifyMaxTries int

	// FailedSweepSchedule is the cron expression for the only_failed=true
	// re-fetch sweep.
	FailedSweepSchedule string
	// FailedSweepTimezone is the IANA timezone the sweep schedule runs in.
	FailedSweepTimezone string

	// HTTPAddr is the address the publish/subscribe/listen façade binds to.
	HTTPAddr string
	// HealthPort is the port for the liveness/readiness probe server.
	HealthPort int
}

// DefaultHubConfig returns a HubConfig with production-ready defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		DatabaseURL:             "",
		RedisURL:                "redis://localhost:6379/0",
		NotifyQueueKey:          "pushhub:notify",
		HubURL:                  "http://localhost:8080",
		FetchParallelism:        8,
		NotifyWorkerConcurrency: 4,
		NotifyMaxTries:          10,
		FailedSweepSchedule:     "*/15 * * * *",
		FailedSweepTimezone:     "UTC",
		HTTPAddr:                ":8080",
		HealthPort:              9091,
	}
}

// Validate checks every field against the same rules LoadFromEnv enforces.
func (c *HubConfig) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("database url: must not be empty"))
	}
	if err := pkgconfig.ValidateCronSchedule(c.FailedSweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("failed sweep schedule: %w", err))
	}
	if err := pkgconfig.ValidateTimezone(c.FailedSweepTimezone); err != nil {
		errs = append(errs, fmt.Errorf("failed sweep timezone: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.FetchParallelism, 1, 64); err != nil {
		errs = append(errs, fmt.Errorf("fetch parallelism: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.NotifyWorkerConcurrency, 1, 64); err != nil {
		errs = append(errs, fmt.Errorf("notify worker concurrency: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.NotifyMaxTries, 1, 100); err != nil {
		errs = append(errs, fmt.Errorf("notify max tries: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadFromEnv builds a HubConfig from environment variables, falling back to
// DefaultHubConfig's values (with a logged warning) for any field that is
// set but fails validation. It never returns an error.
//
// Environment variables:
//   - DATABASE_URL, REDIS_URL, NOTIFY_QUEUE_KEY
//   - HUB_URL
//   - FETCH_PARALLELISM, NOTIFY_WORKER_CONCURRENCY, NOTIFY_MAX_TRIES
//   - FAILED_SWEEP_SCHEDULE, FAILED_SWEEP_TIMEZONE
//   - HTTP_ADDR, HEALTH_PORT
func LoadFromEnv(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) *HubConfig {
	cfg := DefaultHubConfig()

	cfg.DatabaseURL = pkgconfig.LoadEnvString("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = pkgconfig.LoadEnvString("REDIS_URL", cfg.RedisURL)
	cfg.NotifyQueueKey = pkgconfig.LoadEnvString("NOTIFY_QUEUE_KEY", cfg.NotifyQueueKey)
	cfg.HubURL = pkgconfig.LoadEnvString("HUB_URL", cfg.HubURL)
	cfg.HTTPAddr = pkgconfig.LoadEnvString("HTTP_ADDR", cfg.HTTPAddr)

	applyIntFallback(logger, metrics, "FETCH_PARALLELISM", "fetch_parallelism", &cfg.FetchParallelism,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 64) })
	applyIntFallback(logger, metrics, "NOTIFY_WORKER_CONCURRENCY", "notify_worker_concurrency", &cfg.NotifyWorkerConcurrency,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 64) })
	applyIntFallback(logger, metrics, "NOTIFY_MAX_TRIES", "notify_max_tries", &cfg.NotifyMaxTries,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 100) })
	applyIntFallback(logger, metrics, "HEALTH_PORT", "health_port", &cfg.HealthPort,
		func(v int) error { return pkgconfig.ValidateIntRange(v, 1024, 65535) })

	result := pkgconfig.LoadEnvWithFallback("FAILED_SWEEP_SCHEDULE", cfg.FailedSweepSchedule, pkgconfig.ValidateCronSchedule)
	cfg.FailedSweepSchedule = result.Value.(string)
	recordFallback(logger, metrics, "failed_sweep_schedule", result)

	result = pkgconfig.LoadEnvWithFallback("FAILED_SWEEP_TIMEZONE", cfg.FailedSweepTimezone, pkgconfig.ValidateTimezone)
	cfg.FailedSweepTimezone = result.Value.(string)
	recordFallback(logger, metrics, "failed_sweep_timezone", result)

	if metrics != nil {
		metrics.RecordLoadTimestamp()
	}
	return &cfg
}

func applyIntFallback(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics, envKey, field string, dst *int, validate func(int) error) {
	result := pkgconfig.LoadEnvInt(envKey, *dst, validate)
	*dst = result.Value.(int)
	recordFallback(logger, metrics, field, result)
}

func recordFallback(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics, field string, result pkgconfig.ConfigLoadResult) {
	if !result.FallbackApplied {
		return
	}
	if metrics != nil {
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
	}
	for _, warning := range result.Warnings {
		logger.Warn("configuration fallback applied",
			slog.String("field", field), slog.String("warning", warning))
	}
}
