package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adi-253/Talkie/relay/internal/models"
)

// RoomLister reads live rooms and their participants.
type RoomLister interface {
	List(ctx context.Context, roomID string) ([]string, error)
	Rooms(ctx context.Context) ([]models.RoomInfoResponse, error)
}

// RoomHandler contains HTTP handlers for room operations.
type RoomHandler struct {
	registry RoomLister
}

// NewRoomHandler creates a new RoomHandler instance.
func NewRoomHandler(registry RoomLister) *RoomHandler {
	return &RoomHandler{registry: registry}
}

// ListRooms handles GET /api/rooms
// Returns all active rooms.
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.registry.Rooms(r.Context())
	if err != nil {
		log.Printf("[Room] %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// GetRoom handles GET /api/rooms/{id}
// Returns current participants. Rooms without participants do not exist.
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "room ID is required")
		return
	}

	participants, err := h.registry.List(r.Context(), roomID)
	if err != nil {
		log.Printf("[Room] %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load room")
		return
	}
	if len(participants) == 0 {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	writeJSON(w, http.StatusOK, models.RoomInfoResponse{
		RoomID:       roomID,
		Participants: participants,
	})
}

// writeJSON is a helper function to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}
