package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"hotspotcli/internal/infrastructure"
	ws "hotspotcli/internal/websocket"
)

// upgrader accepts same-origin and configured dashboard origins; origin
// policy is enforced by the CORS middleware in front.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades connections onto the event hub
type WebSocketHandler struct {
	hub    *ws.Hub
	logger *slog.Logger
}

// NewWebSocketHandler creates a websocket handler
func NewWebSocketHandler(hub *ws.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger.With(slog.String("handler", "websocket")),
	}
}

// Serve handles GET /ws
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}

	ws.ServeWS(h.hub, conn, infrastructure.GetTraceID(ctx))
}
