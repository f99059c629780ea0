package repository

import (
	"context"

	"pushhub/internal/domain/entity"
)

// SubscriberRepository persists Subscriber entities and their membership in
// the topic edge table.
type SubscriberRepository interface {
	Get(ctx context.Context, callbackURL string) (*entity.Subscriber, error)
	GetOrCreate(ctx context.Context, callbackURL string) (*entity.Subscriber, error)
	Delete(ctx context.Context, callbackURL string) error

	// TopicURLsFor returns every topic URL callbackURL is subscribed to.
	TopicURLsFor(ctx context.Context, callbackURL string) ([]string, error)
}
