package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"pushhub/internal/config"
	hhttp "pushhub/internal/handler/http"
	hubhandler "pushhub/internal/handler/http/hub"
	"pushhub/internal/handler/http/requestid"
	pgRepo "pushhub/internal/infra/adapter/persistence/postgres"
	"pushhub/internal/infra/db"
	"pushhub/internal/infra/gateway"
	"pushhub/internal/infra/process"
	"pushhub/internal/infra/queue"
	"pushhub/internal/observability/slo"
	"pushhub/internal/observability/tracing"
	pkgconfig "pushhub/internal/pkg/config"
	"pushhub/internal/resilience/circuitbreaker"
	hubUC "pushhub/internal/usecase/hub"
	"pushhub/internal/usecase/notify"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logger := initLogger()

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	cfg := config.LoadFromEnv(logger, pkgconfig.NewConfigMetrics("hub"))
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid hub configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("hub configuration loaded",
		slog.String("hub_url", cfg.HubURL),
		slog.Int("fetch_parallelism", cfg.FetchParallelism),
		slog.Int("notify_worker_concurrency", cfg.NotifyWorkerConcurrency),
		slog.String("failed_sweep_schedule", cfg.FailedSweepSchedule))

	redisClient := initRedis(logger, cfg.RedisURL)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis client", slog.Any("error", err))
		}
	}()

	svc := setupHubService(database, redisClient, cfg)

	healthServer := process.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health server started", slog.Int("port", cfg.HealthPort))

	worker := notify.NewWorker(svc.Queue, svc.Gateway, cfg.NotifyWorkerConcurrency)
	worker.Run(ctx)

	go db.PollConnectionStats(ctx, database, 30*time.Second)
	go slo.RunSampler(ctx, prometheus.DefaultGatherer, time.Minute)

	sweepCron := startFailedSweep(logger, svc, cfg)
	defer sweepCron.Stop()

	healthServer.SetReady(true)
	logger.Info("hub marked as ready")

	runHTTPServer(logger, svc, worker, cfg, cancel)
}

func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

func initRedis(logger *slog.Logger, redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error("invalid redis url, falling back to localhost", slog.Any("error", err))
		opts = &redis.Options{Addr: "localhost:6379"}
	}
	return redis.NewClient(opts)
}

func setupHubService(database *sql.DB, redisClient *redis.Client, cfg *config.HubConfig) *hubUC.Service {
	dbBreaker := circuitbreaker.NewDBCircuitBreaker(database)
	return &hubUC.Service{
		Topics:           pgRepo.NewTopicRepo(dbBreaker),
		Subscribers:      pgRepo.NewSubscriberRepo(dbBreaker),
		Listeners:        pgRepo.NewListenerRepo(dbBreaker),
		Queue:            queue.New(redisClient, cfg.NotifyQueueKey),
		Gateway:          gateway.New(createHTTPClient()),
		HubURL:           cfg.HubURL,
		FetchParallelism: cfg.FetchParallelism,
	}
}

func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// startFailedSweep schedules the periodic fetch_all_content(only_failed=true)
// maintenance sweep that re-fetches every topic currently marked failed,
// independent of the best-effort sweep a publish also triggers.
func startFailedSweep(logger *slog.Logger, svc *hubUC.Service, cfg *config.HubConfig) *cron.Cron {
	loc, err := time.LoadLocation(cfg.FailedSweepTimezone)
	if err != nil {
		logger.Error("invalid failed sweep timezone, using UTC",
			slog.String("timezone", cfg.FailedSweepTimezone), slog.Any("error", err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.FailedSweepSchedule, func() {
		runFailedSweep(logger, svc)
	})
	if err != nil {
		logger.Error("failed to schedule failed-topic sweep", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	logger.Info("failed-topic sweep scheduled",
		slog.String("schedule", cfg.FailedSweepSchedule),
		slog.String("timezone", cfg.FailedSweepTimezone))
	return c
}

func runFailedSweep(logger *slog.Logger, svc *hubUC.Service) {
	start := time.Now()
	logger.Info("failed-topic sweep started")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := svc.FetchAllContent(ctx, true); err != nil {
		logger.Error("failed-topic sweep failed", slog.Any("error", err))
		return
	}

	logger.Info("failed-topic sweep complete", slog.Duration("duration", time.Since(start)))
}

func runHTTPServer(logger *slog.Logger, svc *hubUC.Service, worker *notify.Worker, cfg *config.HubConfig, cancelBackground context.CancelFunc) {
	mux := http.NewServeMux()
	hubhandler.Register(mux, svc)
	mux.Handle("/metrics", hhttp.MetricsHandler())

	// Built innermost-out, mirroring the teacher's applyMiddleware chain:
	// recovery and body-size limiting guard the handler directly, logging
	// and metrics wrap that, tracing and request IDs are outermost so every
	// other layer can see them.
	var handler http.Handler = mux
	handler = hhttp.LimitRequestBody(1 << 20)(handler)
	handler = hhttp.Recover(logger)(handler)
	handler = hhttp.Logging(logger)(handler)
	handler = hhttp.MetricsMiddleware(handler)
	handler = tracing.Middleware(handler)
	handler = requestid.Middleware(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("hub http server starting", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("hub http server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down hub...")

	cancelBackground()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := worker.Shutdown(shutdownCtx); err != nil {
		logger.Error("notify worker shutdown failed", slog.Any("error", err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("hub http server shutdown failed", slog.Any("error", err))
	}
	logger.Info("hub stopped")
}
