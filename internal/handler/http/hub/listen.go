package hub

import (
	"net/http"

	"pushhub/internal/domain/entity"
	"pushhub/internal/usecase/hub"
)

// ListenHandler implements POST /listen: registering a listener that wants
// to hear about every topic the hub already knows, plus any published
// afterward.
type ListenHandler struct{ Svc *hub.Service }

func (h ListenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireFormPost(w, r) {
		return
	}

	callback := entity.NormalizeIRI(r.PostForm.Get("listener.callback"))
	if err := entity.ValidateURL(callback); err != nil {
		http.Error(w, "listener.callback: "+validationMessage(err), http.StatusBadRequest)
		return
	}

	if err := h.Svc.RegisterListener(r.Context(), callback); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}
