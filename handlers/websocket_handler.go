package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ffarena/tournament-engine/events"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Cross-origin policy is enforced by the CORS middleware on the
		// HTTP routes; the event feed is public read-only data.
		return true
	},
}

type WebSocketHandler struct {
	hub    *events.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *events.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// Subscribe upgrades the connection and joins the event feed. With a
// tournament_id query parameter the client receives only that tournament's
// events; without one it receives every event.
func (h *WebSocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := events.NewClient(h.hub, conn, r.URL.Query().Get("tournament_id"))
	client.Subscribe()
	go client.WritePump()
	go client.ReadPump()
}
