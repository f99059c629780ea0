package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"pushhub/internal/domain/entity"
	"pushhub/internal/repository"
)

type SubscriberRepo struct{ db dbExecutor }

func NewSubscriberRepo(db dbExecutor) repository.SubscriberRepository {
	return &SubscriberRepo{db: db}
}

func (r *SubscriberRepo) Get(ctx context.Context, callbackURL string) (*entity.Subscriber, error) {
	defer timeOperation("subscriber_get")()
	const query = `SELECT callback_url, created_at FROM subscribers WHERE callback_url = $1 LIMIT 1`
	var s entity.Subscriber
	err := r.db.QueryRowContext(ctx, query, callbackURL).Scan(&s.CallbackURL, &s.CreatedDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &s, nil
}

func (r *SubscriberRepo) GetOrCreate(ctx context.Context, callbackURL string) (*entity.Subscriber, error) {
	existing, err := r.Get(ctx, callbackURL)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	subscriber, err := entity.NewSubscriber(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: %w", err)
	}

	const insert = `
INSERT INTO subscribers (callback_url, created_at)
VALUES ($1, $2)
ON CONFLICT (callback_url) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, subscriber.CallbackURL, subscriber.CreatedDate); err != nil {
		return nil, fmt.Errorf("GetOrCreate: insert: %w", err)
	}

	created, err := r.Get(ctx, callbackURL)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: reload: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("GetOrCreate: subscriber vanished after insert")
	}
	return created, nil
}

func (r *SubscriberRepo) Delete(ctx context.Context, callbackURL string) error {
	defer timeOperation("subscriber_delete")()
	const query = `DELETE FROM subscribers WHERE callback_url = $1`
	res, err := r.db.ExecContext(ctx, query, callbackURL)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrSubscriberNotFound)
	}
	return nil
}

func (r *SubscriberRepo) TopicURLsFor(ctx context.Context, callbackURL string) ([]string, error) {
	const query = `SELECT topic_url FROM topic_subscribers WHERE callback_url = $1 ORDER BY topic_url ASC`
	rows, err := r.db.QueryContext(ctx, query, callbackURL)
	if err != nil {
		return nil, fmt.Errorf("TopicURLsFor: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("TopicURLsFor: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}
