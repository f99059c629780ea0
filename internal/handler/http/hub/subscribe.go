package hub

import (
	"net/http"

	"pushhub/internal/domain/entity"
	hhttp "pushhub/internal/handler/http"
	"pushhub/internal/usecase/hub"
)

// SubscribeHandler implements POST /subscribe, handling both subscribe and
// unsubscribe intents (selected by hub.mode) since they share the same
// parameter set and verification handshake.
type SubscribeHandler struct{ Svc *hub.Service }

func (h SubscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireFormPost(w, r) {
		return
	}

	callback := entity.NormalizeIRI(r.PostForm.Get("hub.callback"))
	if err := entity.ValidateURL(callback); err != nil {
		http.Error(w, "hub.callback: "+validationMessage(err), http.StatusBadRequest)
		return
	}

	topicURL := entity.NormalizeIRI(r.PostForm.Get("hub.topic"))
	if err := entity.ValidateURL(topicURL); err != nil {
		http.Error(w, "hub.topic: "+validationMessage(err), http.StatusBadRequest)
		return
	}

	mode := r.PostForm.Get("hub.mode")
	if mode != "subscribe" && mode != "unsubscribe" {
		http.Error(w, `hub.mode must be "subscribe" or "unsubscribe"`, http.StatusBadRequest)
		return
	}

	verifyModes := r.PostForm["hub.verify"]
	if !chooseSyncVerify(verifyModes) {
		if containsString(verifyModes, "async") {
			http.Error(w, "hub.verify=async is not supported", http.StatusBadRequest)
			return
		}
		http.Error(w, "hub.verify must include sync or async", http.StatusBadRequest)
		return
	}

	verifyCallbacks := true
	if raw := r.PostForm.Get("hub.verify_callbacks"); raw != "" {
		verifyCallbacks = raw != "false" && raw != "False" && raw != "0"
	}

	ctx := r.Context()
	var verified bool
	var err error
	if mode == "subscribe" {
		verified, err = h.Svc.Subscribe(ctx, callback, topicURL, verifyCallbacks)
	} else {
		verified, err = h.Svc.Unsubscribe(ctx, callback, topicURL)
	}
	if err != nil {
		hhttp.RecordVerificationOutcome(mode, false)
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	hhttp.RecordVerificationOutcome(mode, verified)
	if !verified {
		http.Error(w, "subscription verification failed", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// chooseSyncVerify reports whether the request's hub.verify values include
// "sync", which is preferred over "async" whenever both are present.
func chooseSyncVerify(modes []string) bool {
	return containsString(modes, "sync")
}

func containsString(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
