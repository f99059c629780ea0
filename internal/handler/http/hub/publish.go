package hub

import (
	"context"
	"log/slog"
	"net/http"

	"pushhub/internal/domain/entity"
	hhttp "pushhub/internal/handler/http"
	"pushhub/internal/usecase/hub"
)

// PublishHandler implements POST /publish. A publisher pings one or more
// topic URLs; the hub re-fetches each, notifies listeners that a topic
// changed, sweeps previously-failed topics while it has the chance, and
// finally dispatches the subscriber notifications the fetch produced.
type PublishHandler struct{ Svc *hub.Service }

func (h PublishHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireFormPost(w, r) {
		return
	}

	if mode := r.PostForm.Get("hub.mode"); mode != "publish" {
		hhttp.RecordPublish(false)
		http.Error(w, `hub.mode must be "publish"`, http.StatusBadRequest)
		return
	}

	urls := r.PostForm["hub.url"]
	if len(urls) == 0 {
		hhttp.RecordPublish(false)
		http.Error(w, "hub.url is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := h.publishAll(ctx, urls); err != nil {
		hhttp.RecordPublish(false)
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	h.fetchAndNotify(ctx, urls)

	hhttp.RecordPublish(true)
	w.WriteHeader(http.StatusNoContent)
}

func (h PublishHandler) publishAll(ctx context.Context, urls []string) error {
	for _, url := range urls {
		if _, err := h.Svc.Publish(ctx, url); err != nil {
			return err
		}
	}
	return nil
}

// fetchAndNotify runs the rest of the publish pipeline: fetch_content for
// the just-published URLs, notify_listeners for those topics, a best-effort
// fetch_all_content(only_failed=true) sweep of previously-failed topics, then
// notify_subscribers for each published topic reloaded post-fetch. Every
// step is best-effort and only logged on failure; the ping already committed
// by the time this runs.
func (h PublishHandler) fetchAndNotify(ctx context.Context, urls []string) {
	if err := h.Svc.FetchContent(ctx, urls); err != nil {
		slog.Warn("publish: fetch content failed", slog.Any("error", err))
	}

	fresh := make([]*entity.Topic, 0, len(urls))
	for _, url := range urls {
		topic, err := h.Svc.Topics.Get(ctx, url)
		if err != nil || topic == nil {
			continue
		}
		fresh = append(fresh, topic)
	}

	if err := h.Svc.NotifyListeners(ctx, fresh); err != nil {
		slog.Warn("publish: notify listeners failed", slog.Any("error", err))
	}

	if err := h.Svc.FetchAllContent(ctx, true); err != nil {
		slog.Warn("publish: failed-topic sweep failed", slog.Any("error", err))
	}

	for _, topic := range fresh {
		if err := h.Svc.NotifySubscribers(ctx, topic); err != nil {
			slog.Warn("publish: notify subscribers failed",
				slog.String("topic", topic.URL), slog.Any("error", err))
		}
	}
}
