package hub

import (
	"net/http"

	"pushhub/internal/usecase/hub"
)

// Register wires the publish/subscribe/listen endpoints onto mux.
func Register(mux *http.ServeMux, svc *hub.Service) {
	mux.Handle("/publish", PublishHandler{Svc: svc})
	mux.Handle("/subscribe", SubscribeHandler{Svc: svc})
	mux.Handle("/listen", ListenHandler{Svc: svc})
}
