// Package hub implements the hub's three subscriber-facing endpoints:
// publish, subscribe/unsubscribe, and listener registration. Handlers are
// thin: they parse and validate the form body, call into
// internal/usecase/hub, and translate the result into the status codes and
// bodies SPEC_FULL §6.1 defines. No business logic lives here.
package hub

import (
	"errors"
	"mime"
	"net/http"

	"pushhub/internal/domain/entity"
	"pushhub/internal/handler/http/respond"
)

const formContentType = "application/x-www-form-urlencoded"

// requireFormPost enforces the method and content-type rules shared by every
// endpoint in this package: POST only (405 with Allow otherwise), and a
// form-urlencoded body only (406 otherwise). On success it parses the form
// and returns true; on failure it has already written the response.
func requireFormPost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != formContentType {
		w.Header().Set("Accept", formContentType)
		http.Error(w, "unsupported content type", http.StatusNotAcceptable)
		return false
	}

	if err := r.ParseForm(); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

// validationMessage extracts the field/message pair from a wrapped
// entity.ValidationError, or falls back to the raw error string for
// anything else. The hub's HTTP contract requires 400 bodies that name the
// offending parameter, not an internal error wrapping chain.
func validationMessage(err error) string {
	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}
