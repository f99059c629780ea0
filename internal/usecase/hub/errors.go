// Package hub implements the orchestration at the center of the PuSH hub:
// publishing, subscribing, verifying subscription intent, fetching topic
// content and diffing it, and dispatching notifications to subscribers and
// listeners. It holds no persistence or transport details of its own —
// those live behind repository.TopicRepository/SubscriberRepository/
// ListenerRepository/NotifyQueueRepository and internal/infra/gateway.
package hub

import "errors"

// Sentinel errors for hub use case operations.
var (
	// ErrUnsupportedVerifyMode indicates hub.verify named something other
	// than "sync" or "async".
	ErrUnsupportedVerifyMode = errors.New("unsupported verify mode")

	// ErrAsyncVerifyUnsupported indicates the caller asked for async
	// verification, which this hub does not implement.
	ErrAsyncVerifyUnsupported = errors.New("async verification is not supported")
)
