package repository

import (
	"context"

	"pushhub/internal/domain/entity"
)

// ListenerRepository persists Listener entities and which topics each has
// already been notified about.
type ListenerRepository interface {
	Get(ctx context.Context, callbackURL string) (*entity.Listener, error)
	GetOrCreate(ctx context.Context, callbackURL string) (*entity.Listener, error)
	List(ctx context.Context) ([]*entity.Listener, error)

	// NotifiedTopicURLsFor returns every topic URL callbackURL has
	// already been notified about.
	NotifiedTopicURLsFor(ctx context.Context, callbackURL string) ([]string, error)
	// MarkNotified records that callbackURL has now been told about
	// topicURL, so it is not notified again.
	MarkNotified(ctx context.Context, callbackURL, topicURL string) error
}
