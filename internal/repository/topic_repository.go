package repository

import (
	"context"

	"pushhub/internal/domain/entity"
)

// TopicRepository persists the Topic aggregate: its tracked content plus the
// edge table linking it to its subscribers.
type TopicRepository interface {
	Get(ctx context.Context, url string) (*entity.Topic, error)
	// GetOrCreate returns the existing Topic for url, creating and
	// persisting a fresh one if none exists yet.
	GetOrCreate(ctx context.Context, url string) (*entity.Topic, error)
	List(ctx context.Context) ([]*entity.Topic, error)
	// ListFailed returns only topics with Failed == true, for the
	// periodic only_failed sweep.
	ListFailed(ctx context.Context) ([]*entity.Topic, error)
	Update(ctx context.Context, topic *entity.Topic) error
	Delete(ctx context.Context, url string) error

	// AddSubscriberLink records that callbackURL subscribes to topicURL.
	AddSubscriberLink(ctx context.Context, topicURL, callbackURL string) error
	// RemoveSubscriberLink removes the link, if present.
	RemoveSubscriberLink(ctx context.Context, topicURL, callbackURL string) error
	// SubscriberCallbacksFor returns every callback URL currently
	// subscribed to topicURL.
	SubscriberCallbacksFor(ctx context.Context, topicURL string) ([]string, error)
}
