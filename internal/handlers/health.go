package handlers

import (
	"context"
	"log"
	"net/http"
	"time"
)

// HealthResponse represents the health check response structure.
type HealthResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Connections int    `json:"connections"`
}

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// ConnectionCounter reports the number of live sockets.
type ConnectionCounter interface {
	ConnectionCount() int
}

// HealthHandler serves the health endpoint.
type HealthHandler struct {
	ping  Pinger
	conns ConnectionCounter
}

// NewHealthHandler creates a HealthHandler. ping may be nil.
func NewHealthHandler(ping Pinger, conns ConnectionCounter) *HealthHandler {
	return &HealthHandler{ping: ping, conns: conns}
}

// HealthCheck handles GET /health
// Returns 503 when the message database cannot be reached.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "ok",
		Message: "relay is running",
	}
	if h.conns != nil {
		response.Connections = h.conns.ConnectionCount()
	}

	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			log.Printf("[Health] Database ping failed: %v", err)
			response.Status = "unavailable"
			response.Message = "database unreachable"
			writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	writeJSON(w, http.StatusOK, response)
}
