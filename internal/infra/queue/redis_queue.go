// Package queue is the hub's durable notify queue: a Redis-backed FIFO of
// delivery jobs that survives process restart, drained by the notify
// worker pool in internal/usecase/notify.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pushhub/internal/repository"
)

// wireJob is the JSON-on-the-wire shape of repository.NotifyJob.
type wireJob struct {
	Callback string            `json:"callback"`
	Headers  map[string]string `json:"headers"`
	Body     []byte            `json:"body"`
	MaxTries int               `json:"max_tries"`
}

// NotifyQueue is a Redis-list-backed repository.NotifyQueueRepository.
type NotifyQueue struct {
	client *redis.Client
	key    string
}

// New builds a NotifyQueue backed by client, storing jobs under the given
// Redis list key.
func New(client *redis.Client, key string) *NotifyQueue {
	return &NotifyQueue{client: client, key: key}
}

// Push enqueues job at the tail of the queue.
func (q *NotifyQueue) Push(ctx context.Context, job repository.NotifyJob) error {
	encoded, err := json.Marshal(wireJob(job))
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, encoded).Err(); err != nil {
		return fmt.Errorf("queue: push: %w", err)
	}
	return nil
}

// Pull blocks until a job is available or ctx is done, then pops and
// returns it from the head of the queue.
func (q *NotifyQueue) Pull(ctx context.Context) (repository.NotifyJob, error) {
	result, err := q.client.BLPop(ctx, 0, q.key).Result()
	if err != nil {
		return repository.NotifyJob{}, fmt.Errorf("queue: pull: %w", err)
	}
	// BLPOP returns [key, value]; result[0] is always q.key here.
	var wire wireJob
	if err := json.Unmarshal([]byte(result[1]), &wire); err != nil {
		return repository.NotifyJob{}, fmt.Errorf("queue: unmarshal job: %w", err)
	}
	return repository.NotifyJob(wire), nil
}

// Len reports the current queue depth, for observability.
func (q *NotifyQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue: len: %w", err)
	}
	return n, nil
}
