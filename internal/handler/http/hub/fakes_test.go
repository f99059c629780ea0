package hub_test

import (
	"context"
	"sync"

	"pushhub/internal/domain/entity"
	"pushhub/internal/repository"
)

// fakeTopics is an in-memory repository.TopicRepository good enough for
// handler-level tests: no concurrency guarantees beyond a single mutex.
type fakeTopics struct {
	mu     sync.Mutex
	topics map[string]*entity.Topic
	links  map[string]map[string]struct{} // topicURL -> set of callbackURL
}

func newFakeTopics() *fakeTopics {
	return &fakeTopics{
		topics: make(map[string]*entity.Topic),
		links:  make(map[string]map[string]struct{}),
	}
}

func (f *fakeTopics) Get(_ context.Context, url string) (*entity.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.topics[url]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTopics) GetOrCreate(ctx context.Context, url string) (*entity.Topic, error) {
	if t, _ := f.Get(ctx, url); t != nil {
		return t, nil
	}
	topic, err := entity.NewTopic(url)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.topics[url] = topic
	f.mu.Unlock()
	cp := *topic
	return &cp, nil
}

func (f *fakeTopics) List(_ context.Context) ([]*entity.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Topic, 0, len(f.topics))
	for _, t := range f.topics {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeTopics) ListFailed(ctx context.Context) ([]*entity.Topic, error) {
	all, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Topic, 0)
	for _, t := range all {
		if t.Failed {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTopics) Update(_ context.Context, topic *entity.Topic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.topics[topic.URL]; !ok {
		return entity.ErrTopicNotFound
	}
	cp := *topic
	f.topics[topic.URL] = &cp
	return nil
}

func (f *fakeTopics) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.topics, url)
	return nil
}

func (f *fakeTopics) AddSubscriberLink(_ context.Context, topicURL, callbackURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.links[topicURL] == nil {
		f.links[topicURL] = make(map[string]struct{})
	}
	f.links[topicURL][callbackURL] = struct{}{}
	return nil
}

func (f *fakeTopics) RemoveSubscriberLink(_ context.Context, topicURL, callbackURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.links[topicURL], callbackURL)
	return nil
}

func (f *fakeTopics) SubscriberCallbacksFor(_ context.Context, topicURL string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.links[topicURL]))
	for cb := range f.links[topicURL] {
		out = append(out, cb)
	}
	return out, nil
}

// fakeSubscribers is an in-memory repository.SubscriberRepository.
type fakeSubscribers struct {
	mu          sync.Mutex
	subscribers map[string]*entity.Subscriber
	topicsOf    map[string][]string
}

func newFakeSubscribers() *fakeSubscribers {
	return &fakeSubscribers{
		subscribers: make(map[string]*entity.Subscriber),
		topicsOf:    make(map[string][]string),
	}
}

func (f *fakeSubscribers) Get(_ context.Context, callbackURL string) (*entity.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subscribers[callbackURL]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubscribers) GetOrCreate(ctx context.Context, callbackURL string) (*entity.Subscriber, error) {
	if s, _ := f.Get(ctx, callbackURL); s != nil {
		return s, nil
	}
	s, err := entity.NewSubscriber(callbackURL)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.subscribers[callbackURL] = s
	f.mu.Unlock()
	cp := *s
	return &cp, nil
}

func (f *fakeSubscribers) Delete(_ context.Context, callbackURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subscribers, callbackURL)
	return nil
}

func (f *fakeSubscribers) TopicURLsFor(_ context.Context, callbackURL string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topicsOf[callbackURL], nil
}

// fakeListeners is an in-memory repository.ListenerRepository.
type fakeListeners struct {
	mu        sync.Mutex
	listeners map[string]*entity.Listener
	notified  map[string]map[string]struct{} // callback -> set of topicURL
}

func newFakeListeners() *fakeListeners {
	return &fakeListeners{
		listeners: make(map[string]*entity.Listener),
		notified:  make(map[string]map[string]struct{}),
	}
}

func (f *fakeListeners) Get(_ context.Context, callbackURL string) (*entity.Listener, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listeners[callbackURL]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListeners) GetOrCreate(ctx context.Context, callbackURL string) (*entity.Listener, error) {
	if l, _ := f.Get(ctx, callbackURL); l != nil {
		return l, nil
	}
	l, err := entity.NewListener(callbackURL)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.listeners[callbackURL] = l
	f.mu.Unlock()
	cp := *l
	return &cp, nil
}

func (f *fakeListeners) List(_ context.Context) ([]*entity.Listener, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeListeners) NotifiedTopicURLsFor(_ context.Context, callbackURL string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.notified[callbackURL]))
	for url := range f.notified[callbackURL] {
		out = append(out, url)
	}
	return out, nil
}

func (f *fakeListeners) MarkNotified(_ context.Context, callbackURL, topicURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notified[callbackURL] == nil {
		f.notified[callbackURL] = make(map[string]struct{})
	}
	f.notified[callbackURL][topicURL] = struct{}{}
	return nil
}

// fakeQueue is an in-memory repository.NotifyQueueRepository.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []repository.NotifyJob
}

func newFakeQueue() *fakeQueue { return &fakeQueue{} }

func (f *fakeQueue) Push(_ context.Context, job repository.NotifyJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) Pull(_ context.Context) (repository.NotifyJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.jobs) == 0 {
		return repository.NotifyJob{}, nil
	}
	job := f.jobs[0]
	f.jobs = f.jobs[1:]
	return job, nil
}

func (f *fakeQueue) Len(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.jobs)), nil
}
