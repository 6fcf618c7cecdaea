package websocket

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler that accepts the given browser origins.
// "*" accepts any origin.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	policy := newOriginPolicy(allowedOrigins)
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.check,
		},
	}
}

// ServeWS handles WebSocket upgrade requests at /ws.
// The connection starts unjoined; the client sends a join event to enter a room.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] Upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn)
	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}
	log.Printf("[WebSocket] New connection %s from %s", client.ID(), r.RemoteAddr)

	// Start read/write pumps in separate goroutines
	go client.WritePump()
	go client.ReadPump()
}
