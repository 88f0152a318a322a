package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/websockets"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *websockets.Hub
	upgrader *websocket.Upgrader
	rs       *api.Responder
	log      *zap.Logger
}

func NewWebSocketHandler(hub *websockets.Hub, upgrader *websocket.Upgrader, rs *api.Responder, log *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		upgrader: upgrader,
		rs:       rs,
		log:      log,
	}
}

// ServeHTTP upgrades an authenticated request. Browsers pass the token as ?token=.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.rs)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// If upgrading fails, the upgrader has already written the error to the response
		return
	}

	websockets.ServeWs(h.hub, conn, p.ID.String(), p.Role, h.log)
}
