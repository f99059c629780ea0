package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"pushhub/internal/domain/entity"
	"pushhub/internal/repository"
)

type ListenerRepo struct{ db dbExecutor }

func NewListenerRepo(db dbExecutor) repository.ListenerRepository {
	return &ListenerRepo{db: db}
}

func (r *ListenerRepo) Get(ctx context.Context, callbackURL string) (*entity.Listener, error) {
	const query = `SELECT callback_url FROM listeners WHERE callback_url = $1 LIMIT 1`
	var l entity.Listener
	err := r.db.QueryRowContext(ctx, query, callbackURL).Scan(&l.CallbackURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &l, nil
}

func (r *ListenerRepo) GetOrCreate(ctx context.Context, callbackURL string) (*entity.Listener, error) {
	existing, err := r.Get(ctx, callbackURL)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	listener, err := entity.NewListener(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: %w", err)
	}

	const insert = `INSERT INTO listeners (callback_url) VALUES ($1) ON CONFLICT (callback_url) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, listener.CallbackURL); err != nil {
		return nil, fmt.Errorf("GetOrCreate: insert: %w", err)
	}

	created, err := r.Get(ctx, callbackURL)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: reload: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("GetOrCreate: listener vanished after insert")
	}
	return created, nil
}

func (r *ListenerRepo) List(ctx context.Context) ([]*entity.Listener, error) {
	defer timeOperation("listener_list")()
	const query = `SELECT callback_url FROM listeners ORDER BY callback_url ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	listeners := make([]*entity.Listener, 0, 16)
	for rows.Next() {
		var l entity.Listener
		if err := rows.Scan(&l.CallbackURL); err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		listeners = append(listeners, &l)
	}
	return listeners, rows.Err()
}

func (r *ListenerRepo) NotifiedTopicURLsFor(ctx context.Context, callbackURL string) ([]string, error) {
	const query = `SELECT topic_url FROM listener_topics WHERE callback_url = $1 ORDER BY topic_url ASC`
	rows, err := r.db.QueryContext(ctx, query, callbackURL)
	if err != nil {
		return nil, fmt.Errorf("NotifiedTopicURLsFor: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("NotifiedTopicURLsFor: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func (r *ListenerRepo) MarkNotified(ctx context.Context, callbackURL, topicURL string) error {
	const query = `
INSERT INTO listener_topics (callback_url, topic_url)
VALUES ($1, $2)
ON CONFLICT (callback_url, topic_url) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, callbackURL, topicURL)
	if err != nil {
		return fmt.Errorf("MarkNotified: %w", err)
	}
	return nil
}
