package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pushhub/internal/domain/entity"
	"pushhub/internal/observability/metrics"
	"pushhub/internal/repository"
)

type TopicRepo struct{ db dbExecutor }

func NewTopicRepo(db dbExecutor) repository.TopicRepository {
	return &TopicRepo{db: db}
}

func scanTopic(row interface{ Scan(...any) error }) (*entity.Topic, error) {
	var t entity.Topic
	var content []byte
	if err := row.Scan(
		&t.URL, &content, &t.ContentType, &t.Timestamp, &t.LastPinged,
		&t.Changed, &t.Failed, &t.SubscriberCount,
	); err != nil {
		return nil, err
	}
	t.Content = content
	return &t, nil
}

func (r *TopicRepo) Get(ctx context.Context, url string) (*entity.Topic, error) {
	defer timeOperation("topic_get")()
	const query = `
SELECT url, content, content_type, fetched_at, last_pinged_at, changed, failed, subscriber_count
FROM topics
WHERE url = $1
LIMIT 1`
	topic, err := scanTopic(r.db.QueryRowContext(ctx, query, url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return topic, nil
}

func (r *TopicRepo) GetOrCreate(ctx context.Context, url string) (*entity.Topic, error) {
	existing, err := r.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	topic, err := entity.NewTopic(url)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: %w", err)
	}

	const insert = `
INSERT INTO topics (url, content, content_type, fetched_at, last_pinged_at, changed, failed, subscriber_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (url) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert,
		topic.URL, topic.Content, topic.ContentType, topic.Timestamp, topic.LastPinged,
		topic.Changed, topic.Failed, topic.SubscriberCount,
	); err != nil {
		return nil, fmt.Errorf("GetOrCreate: insert: %w", err)
	}

	// A concurrent GetOrCreate may have won the race; reload to return the
	// row that actually persisted.
	created, err := r.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: reload: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("GetOrCreate: topic vanished after insert")
	}
	return created, nil
}

func (r *TopicRepo) List(ctx context.Context) ([]*entity.Topic, error) {
	const query = `
SELECT url, content, content_type, fetched_at, last_pinged_at, changed, failed, subscriber_count
FROM topics
ORDER BY url ASC`
	return r.queryTopics(ctx, "List", query)
}

func (r *TopicRepo) ListFailed(ctx context.Context) ([]*entity.Topic, error) {
	const query = `
SELECT url, content, content_type, fetched_at, last_pinged_at, changed, failed, subscriber_count
FROM topics
WHERE failed = TRUE
ORDER BY url ASC`
	return r.queryTopics(ctx, "ListFailed", query)
}

func (r *TopicRepo) queryTopics(ctx context.Context, op, query string, args ...any) ([]*entity.Topic, error) {
	defer timeOperation("topic_" + op)()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	topics := make([]*entity.Topic, 0, 64)
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

func (r *TopicRepo) Update(ctx context.Context, topic *entity.Topic) error {
	defer timeOperation("topic_update")()
	const query = `
UPDATE topics SET
       content          = $1,
       content_type     = $2,
       fetched_at       = $3,
       last_pinged_at   = $4,
       changed          = $5,
       failed           = $6,
       subscriber_count = $7
WHERE url = $8`
	res, err := r.db.ExecContext(ctx, query,
		topic.Content, topic.ContentType, topic.Timestamp, topic.LastPinged,
		topic.Changed, topic.Failed, topic.SubscriberCount, topic.URL,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: %w", entity.ErrTopicNotFound)
	}
	return nil
}

func (r *TopicRepo) Delete(ctx context.Context, url string) error {
	const query = `DELETE FROM topics WHERE url = $1`
	res, err := r.db.ExecContext(ctx, query, url)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrTopicNotFound)
	}
	return nil
}

func (r *TopicRepo) AddSubscriberLink(ctx context.Context, topicURL, callbackURL string) error {
	const query = `
INSERT INTO topic_subscribers (topic_url, callback_url)
VALUES ($1, $2)
ON CONFLICT (topic_url, callback_url) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, topicURL, callbackURL)
	if err != nil {
		return fmt.Errorf("AddSubscriberLink: %w", err)
	}
	return nil
}

func (r *TopicRepo) RemoveSubscriberLink(ctx context.Context, topicURL, callbackURL string) error {
	const query = `DELETE FROM topic_subscribers WHERE topic_url = $1 AND callback_url = $2`
	_, err := r.db.ExecContext(ctx, query, topicURL, callbackURL)
	if err != nil {
		return fmt.Errorf("RemoveSubscriberLink: %w", err)
	}
	return nil
}

func (r *TopicRepo) SubscriberCallbacksFor(ctx context.Context, topicURL string) ([]string, error) {
	const query = `SELECT callback_url FROM topic_subscribers WHERE topic_url = $1 ORDER BY callback_url ASC`
	rows, err := r.db.QueryContext(ctx, query, topicURL)
	if err != nil {
		return nil, fmt.Errorf("SubscriberCallbacksFor: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var callbacks []string
	for rows.Next() {
		var cb string
		if err := rows.Scan(&cb); err != nil {
			return nil, fmt.Errorf("SubscriberCallbacksFor: %w", err)
		}
		callbacks = append(callbacks, cb)
	}
	return callbacks, rows.Err()
}
