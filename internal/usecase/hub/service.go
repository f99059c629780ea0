package hub

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"pushhub/internal/domain/entity"
	"pushhub/internal/feed"
	"pushhub/internal/infra/gateway"
	"pushhub/internal/repository"
)

const (
	challengeLength = 128
	challengeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	defaultMaxTries = 10

	// defaultFetchParallelism bounds the number of topics fetched
	// concurrently by FetchContent/FetchAllContent when the caller does
	// not override it.
	defaultFetchParallelism = 8
)

// Service orchestrates every top-level hub operation: publish, subscribe,
// unsubscribe, subscription verification, listener registration, content
// fetch, and subscriber/listener notification. It holds no state beyond its
// collaborators; the Topic/Subscriber/Listener graph lives entirely behind
// the repositories.
type Service struct {
	Topics      repository.TopicRepository
	Subscribers repository.SubscriberRepository
	Listeners   repository.ListenerRepository
	Queue       repository.NotifyQueueRepository
	Gateway     *gateway.Client

	// HubURL identifies this hub in the User-Agent header presented to
	// topic origins on fetch.
	HubURL string

	// FetchParallelism bounds how many topics FetchContent/FetchAllContent
	// fetch at once. Defaults to defaultFetchParallelism when <= 0.
	FetchParallelism int
}

func (s *Service) fetchParallelism() int {
	if s.FetchParallelism <= 0 {
		return defaultFetchParallelism
	}
	return s.FetchParallelism
}

// Publish upserts the topic and records that its publisher just pinged the
// hub. It does not itself fetch content; the caller drives the rest of the
// publish pipeline (fetch, listener notify, subscriber notify) as separate
// steps.
func (s *Service) Publish(ctx context.Context, topicURL string) (*entity.Topic, error) {
	topic, err := s.Topics.GetOrCreate(ctx, topicURL)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	topic.Ping()
	if err := s.Topics.Update(ctx, topic); err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	slog.Info("published topic", slog.String("topic", topicURL))
	return topic, nil
}

// Subscribe upserts both the topic and subscriber, then (unless
// verifyCallbacks is false) runs the subscription verification protocol in
// "subscribe" mode. On success it links the two. A previously-linked pair is
// tolerated as a no-op, matching the lease-renewal intent behind a repeat
// subscribe.
func (s *Service) Subscribe(ctx context.Context, callbackURL, topicURL string, verifyCallbacks bool) (bool, error) {
	topic, err := s.Topics.GetOrCreate(ctx, topicURL)
	if err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	subscriber, err := s.Subscribers.GetOrCreate(ctx, callbackURL)
	if err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}

	verified := true
	if verifyCallbacks {
		verified = s.verifySubscription(ctx, subscriber.CallbackURL, topic.URL, "subscribe")
	}
	if !verified {
		return false, nil
	}

	existing, err := s.Subscribers.TopicURLsFor(ctx, subscriber.CallbackURL)
	if err != nil {
		return false, fmt.Errorf("subscribe: existing links: %w", err)
	}
	alreadyLinked := contains(existing, topic.URL)

	if err := s.Topics.AddSubscriberLink(ctx, topic.URL, subscriber.CallbackURL); err != nil {
		return false, fmt.Errorf("subscribe: link topic: %w", err)
	}
	if !alreadyLinked {
		// A repeat subscribe on an already-linked pair is a lease-renewal
		// intent, not a new link: the count must not double-count it.
		topic.AddSubscriber()
		if err := s.Topics.Update(ctx, topic); err != nil {
			return false, fmt.Errorf("subscribe: persist subscriber count: %w", err)
		}
	}

	slog.Info("added subscriber",
		slog.String("callback", callbackURL), slog.String("topic", topicURL))
	return true, nil
}

// Unsubscribe upserts both endpoints (so an unknown pair still goes through
// verification), runs the verification protocol in "unsubscribe" mode, and
// on success removes the cross-link. A missing link is tolerated.
func (s *Service) Unsubscribe(ctx context.Context, callbackURL, topicURL string) (bool, error) {
	topic, err := s.Topics.GetOrCreate(ctx, topicURL)
	if err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	subscriber, err := s.Subscribers.GetOrCreate(ctx, callbackURL)
	if err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}

	verified := s.verifySubscription(ctx, subscriber.CallbackURL, topic.URL, "unsubscribe")
	if !verified {
		return false, nil
	}

	if err := s.Topics.RemoveSubscriberLink(ctx, topic.URL, subscriber.CallbackURL); err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	if err := topic.RemoveSubscriber(); err != nil {
		if errors.Is(err, entity.ErrSubscriberNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	if err := s.Topics.Update(ctx, topic); err != nil {
		return false, fmt.Errorf("unsubscribe: persist subscriber count: %w", err)
	}

	slog.Info("removed subscriber",
		slog.String("callback", callbackURL), slog.String("topic", topicURL))
	return true, nil
}

// verifySubscription runs the intent-verification handshake (SPEC_FULL
// §4.7.2): a fresh challenge, a GET to the subscriber's callback carrying
// hub.mode/hub.topic/hub.challenge, verified iff the response is 200 and
// echoes the challenge back in its body. It never returns an error; any
// transport failure is indistinguishable from a subscriber that declined.
func (s *Service) verifySubscription(ctx context.Context, callbackURL, topicURL, mode string) bool {
	challenge := challengeString()
	result := s.Gateway.Verify(ctx, callbackURL, mode, topicURL, challenge)
	if result.Status != 200 {
		return false
	}
	return strings.Contains(result.Body, challenge)
}

func challengeString() string {
	b := make([]byte, challengeLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand.Read failing means the platform RNG is broken;
		// fall back to a fixed-but-unique-enough value rather than
		// panicking mid-request.
		for i := range b {
			b[i] = challengeChars[i%len(challengeChars)]
		}
		return string(b)
	}
	for i, v := range b {
		b[i] = challengeChars[int(v)%len(challengeChars)]
	}
	return string(b)
}

// RegisterListener upserts the listener and, for every topic it does not yet
// know about, links it and sends the "here is a topic" notification.
func (s *Service) RegisterListener(ctx context.Context, callbackURL string) error {
	listener, err := s.Listeners.GetOrCreate(ctx, callbackURL)
	if err != nil {
		return fmt.Errorf("register listener: %w", err)
	}

	topics, err := s.Topics.List(ctx)
	if err != nil {
		return fmt.Errorf("register listener: list topics: %w", err)
	}
	if len(topics) == 0 {
		return nil
	}

	known, err := s.Listeners.NotifiedTopicURLsFor(ctx, listener.CallbackURL)
	if err != nil {
		return fmt.Errorf("register listener: known topics: %w", err)
	}
	knownSet := make(map[string]struct{}, len(known))
	for _, url := range known {
		knownSet[url] = struct{}{}
	}

	for _, topic := range topics {
		if _, ok := knownSet[topic.URL]; ok {
			continue
		}
		if err := s.notifyListener(ctx, listener.CallbackURL, topic.URL); err != nil {
			slog.Warn("listener notify failed",
				slog.String("listener", listener.CallbackURL),
				slog.String("topic", topic.URL), slog.Any("error", err))
		}
	}

	slog.Info("registered listener", slog.String("callback", callbackURL))
	return nil
}

// NotifyListeners links every (topic, listener) pair that isn't linked yet
// and sends each newly-linked listener the "here is a topic" notification.
func (s *Service) NotifyListeners(ctx context.Context, topics []*entity.Topic) error {
	listeners, err := s.Listeners.List(ctx)
	if err != nil {
		return fmt.Errorf("notify listeners: list listeners: %w", err)
	}

	for _, topic := range topics {
		for _, listener := range listeners {
			known, err := s.Listeners.NotifiedTopicURLsFor(ctx, listener.CallbackURL)
			if err != nil {
				slog.Warn("notify listeners: known topics lookup failed",
					slog.String("listener", listener.CallbackURL), slog.Any("error", err))
				continue
			}
			if contains(known, topic.URL) {
				continue
			}
			if err := s.notifyListener(ctx, listener.CallbackURL, topic.URL); err != nil {
				slog.Warn("listener notify failed",
					slog.String("listener", listener.CallbackURL),
					slog.String("topic", topic.URL), slog.Any("error", err))
			}
		}
	}
	return nil
}

func (s *Service) notifyListener(ctx context.Context, listenerURL, topicURL string) error {
	if err := s.Gateway.NotifyListener(ctx, listenerURL, topicURL); err != nil {
		return err
	}
	return s.Listeners.MarkNotified(ctx, listenerURL, topicURL)
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// FetchAllContent fetches every topic's origin, or only those currently
// marked Failed when onlyFailed is true. Topics are fetched with bounded
// parallelism; a single topic's parse failure is logged and does not halt
// the rest of the batch.
func (s *Service) FetchAllContent(ctx context.Context, onlyFailed bool) error {
	var topics []*entity.Topic
	var err error
	if onlyFailed {
		topics, err = s.Topics.ListFailed(ctx)
	} else {
		topics, err = s.Topics.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("fetch all content: %w", err)
	}
	return s.fetchTopics(ctx, topics)
}

// FetchContent fetches only the named topic URLs, skipping any that are not
// already known to the hub.
func (s *Service) FetchContent(ctx context.Context, topicURLs []string) error {
	topics := make([]*entity.Topic, 0, len(topicURLs))
	for _, url := range topicURLs {
		topic, err := s.Topics.Get(ctx, url)
		if err != nil {
			return fmt.Errorf("fetch content: %w", err)
		}
		if topic == nil {
			continue
		}
		topics = append(topics, topic)
	}
	return s.fetchTopics(ctx, topics)
}

func (s *Service) fetchTopics(ctx context.Context, topics []*entity.Topic) error {
	eg, egCtx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, s.fetchParallelism())

	for _, t := range topics {
		topic := t
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.fetchOne(egCtx, topic); err != nil {
				if errors.Is(err, entity.ErrInvalidContent) {
					slog.Warn("topic content unusable, skipping",
						slog.String("topic", topic.URL), slog.Any("error", err))
					return nil
				}
				return err
			}
			return nil
		})
	}

	return eg.Wait()
}

// fetchOne runs the fetch-and-diff pipeline for a single topic (SPEC_FULL
// §4.5): GET with the hub's User-Agent, absorb transport failure into
// Topic.Failed, diff against the previously stored content on every fetch
// after the first, and persist the result.
func (s *Service) fetchOne(ctx context.Context, topic *entity.Topic) error {
	userAgent := entity.UserAgent(s.HubURL, topic.SubscriberCount)

	body, err := s.Gateway.FetchContent(ctx, topic.URL, userAgent)
	if err != nil {
		topic.MarkFailed()
		if updateErr := s.Topics.Update(ctx, topic); updateErr != nil {
			return fmt.Errorf("fetch %s: persist failed flag: %w", topic.URL, updateErr)
		}
		slog.Warn("could not connect to topic URL", slog.String("topic", topic.URL), slog.Any("error", err))
		return nil
	}

	parsed := feed.Parse(body)
	if parsed == nil || parsed.Bozo {
		return fmt.Errorf("fetch %s: %w", topic.URL, entity.ErrInvalidContent)
	}

	content := body
	changed := false

	if len(topic.Content) == 0 {
		// First successful fetch: the whole parsed feed is "newest
		// entries", but the content we store is still the raw bytes
		// we just received.
		changed = true
	} else {
		past := feed.Parse(topic.Content)
		if past != nil && !past.Bozo {
			delta := feed.Compare(*parsed, *past)
			if delta.Changed() {
				changed = true
				generated, genErr := feed.Generate(delta.Metadata, mergedEntries(delta))
				if genErr != nil {
					return fmt.Errorf("fetch %s: generate delta feed: %w", topic.URL, genErr)
				}
				content = generated
			}
		}
	}

	topic.ApplyFetch(parsed.Version, content, changed)
	if err := s.Topics.Update(ctx, topic); err != nil {
		return fmt.Errorf("fetch %s: persist content: %w", topic.URL, err)
	}
	return nil
}

// mergedEntries combines a delta's new and updated entries, newest first,
// for regenerating the feed sent to subscribers.
func mergedEntries(delta feed.Delta) []feed.Entry {
	entries := make([]feed.Entry, 0, len(delta.NewEntries)+len(delta.UpdatedEntries))
	entries = append(entries, delta.NewEntries...)
	entries = append(entries, delta.UpdatedEntries...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedParsed.After(entries[j].UpdatedParsed)
	})
	return entries
}

// NotifySubscribers dispatches the topic's pending change to every
// subscriber by pushing one job per callback onto the durable notify queue,
// then clears the topic's Changed flag. It is a no-op when there are no
// subscribers or nothing has changed.
func (s *Service) NotifySubscribers(ctx context.Context, topic *entity.Topic) error {
	if topic.SubscriberCount == 0 || !topic.Changed {
		return nil
	}

	contentType, err := topic.DeliveryContentType()
	if err != nil {
		return fmt.Errorf("notify subscribers for %s: %w", topic.URL, err)
	}

	callbacks, err := s.Topics.SubscriberCallbacksFor(ctx, topic.URL)
	if err != nil {
		return fmt.Errorf("notify subscribers for %s: %w", topic.URL, err)
	}

	headers := map[string]string{"Content-Type": contentType}
	for _, callback := range callbacks {
		job := repository.NotifyJob{
			Callback: callback,
			Headers:  headers,
			Body:     topic.Content,
			MaxTries: defaultMaxTries,
		}
		if err := s.Queue.Push(ctx, job); err != nil {
			return fmt.Errorf("notify subscribers for %s: enqueue %s: %w", topic.URL, callback, err)
		}
	}

	topic.ClearChanged()
	if err := s.Topics.Update(ctx, topic); err != nil {
		return fmt.Errorf("notify subscribers for %s: clear changed: %w", topic.URL, err)
	}

	slog.Info("dispatched notify jobs",
		slog.String("topic", topic.URL), slog.Int("subscribers", len(callbacks)))
	return nil
}
