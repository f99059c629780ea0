// Package notify drains the hub's durable notify queue, delivering each job
// to its subscriber callback with a per-callback-host circuit breaker and
// rate limiter, re-enqueueing failed jobs at the tail until their retry
// budget is exhausted.
package notify

import (
	"context"
	"log/slog"
	"net/url"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pushhub/internal/infra/gateway"
	"pushhub/internal/repository"
	"pushhub/internal/resilience/circuitbreaker"
)

const (
	workerPoolTimeout = 5 * time.Second
	deliveryTimeout   = 30 * time.Second
	hostRateLimit     = 5 // requests per second per callback host
	hostRateBurst     = 5
)

// Worker drains repository.NotifyQueueRepository with a bounded pool of
// goroutines, each running the four-step loop from the notify protocol:
// drop exhausted jobs, POST the feed body, record the status, and
// re-enqueue at the tail on non-2xx.
type Worker struct {
	queue       repository.NotifyQueueRepository
	gateway     *gateway.Client
	concurrency int

	hostsMu  sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker
	limiters map[string]*rate.Limiter

	workerSlots chan struct{}

	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewWorker builds a Worker that drains q, delivering through gw with up to
// concurrency goroutines running simultaneously.
func NewWorker(q repository.NotifyQueueRepository, gw *gateway.Client, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	return &Worker{
		queue:          q,
		gateway:        gw,
		concurrency:    concurrency,
		breakers:       make(map[string]*circuitbreaker.CircuitBreaker),
		limiters:       make(map[string]*rate.Limiter),
		workerSlots:    make(chan struct{}, concurrency),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}
}

// Run starts concurrency drain-loop goroutines. It returns immediately;
// workers keep pulling from the queue until ctx or the worker's own
// shutdown context is done.
func (w *Worker) Run(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.drainLoop(ctx)
	}
}

func (w *Worker) drainLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdownCtx.Done():
			return
		default:
		}

		job, err := w.queue.Pull(ctx)
		if err != nil {
			if ctx.Err() != nil || w.shutdownCtx.Err() != nil {
				return
			}
			slog.Warn("notify queue pull failed", slog.Any("error", err))
			continue
		}

		select {
		case w.workerSlots <- struct{}{}:
			w.deliver(ctx, job)
			<-w.workerSlots
		case <-time.After(workerPoolTimeout):
			slog.Warn("notify worker pool full, re-enqueueing job",
				slog.String("callback", job.Callback))
			if pushErr := w.queue.Push(ctx, job); pushErr != nil {
				slog.Error("failed to re-enqueue job after pool timeout",
					slog.String("callback", job.Callback), slog.Any("error", pushErr))
			}
		}
	}
}

// deliver runs step 1-3 of the notify protocol for a single job.
func (w *Worker) deliver(ctx context.Context, job repository.NotifyJob) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic delivering notify job",
				slog.String("callback", job.Callback),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	if job.MaxTries <= 0 {
		slog.Info("dropping notify job, max tries exhausted",
			slog.String("callback", job.Callback))
		RecordDropped(hostOf(job.Callback))
		return
	}

	host := hostOf(job.Callback)

	waitStart := time.Now()
	if err := w.limiterFor(host).Wait(ctx); err != nil {
		return
	}
	RecordRateLimitWait(host, time.Since(waitStart))

	deliverCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	RecordDispatch(host)
	start := time.Now()
	status, err := w.gateway.Deliver(deliverCtx, w.breakerFor(host), job.Callback, job.Headers, job.Body)
	duration := time.Since(start)

	if err == nil && status >= 200 && status < 300 {
		RecordSuccess(host, duration)
		return
	}

	RecordFailure(host, duration)
	slog.Warn("notify delivery failed, will retry",
		slog.String("callback", job.Callback),
		slog.Int("status", status),
		slog.Any("error", err))

	// Always re-enqueue after a decrement, even once max_tries reaches
	// zero or below; the entrance check above is what actually drops a
	// job, the next time it is pulled.
	job.MaxTries--
	if pushErr := w.queue.Push(ctx, job); pushErr != nil {
		slog.Error("failed to re-enqueue notify job",
			slog.String("callback", job.Callback), slog.Any("error", pushErr))
	}
}

func (w *Worker) breakerFor(host string) *circuitbreaker.CircuitBreaker {
	w.hostsMu.Lock()
	defer w.hostsMu.Unlock()
	cb, ok := w.breakers[host]
	if !ok {
		cfg := circuitbreaker.DeliveryConfig()
		cfg.Name = "delivery-" + host
		cb = circuitbreaker.New(cfg)
		w.breakers[host] = cb
	}
	return cb
}

func (w *Worker) limiterFor(host string) *rate.Limiter {
	w.hostsMu.Lock()
	defer w.hostsMu.Unlock()
	l, ok := w.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(hostRateLimit), hostRateBurst)
		w.limiters[host] = l
	}
	return l
}

func hostOf(callbackURL string) string {
	u, err := url.Parse(callbackURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

// Shutdown signals all drain loops to stop and waits for in-flight
// deliveries to finish or ctx to expire.
func (w *Worker) Shutdown(ctx context.Context) error {
	slog.Info("shutting down notify worker")
	w.shutdownCancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("notify worker shutdown complete")
		return nil
	case <-ctx.Done():
		slog.Warn("notify worker shutdown timeout")
		return ctx.Err()
	}
}
