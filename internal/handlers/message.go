package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/adi-253/Talkie/relay/internal/models"
)

// HistoryReader serves recent room history.
type HistoryReader interface {
	Recent(ctx context.Context, roomID string, limit int) ([]models.Message, error)
}

// MessageHandler contains HTTP handlers for message operations.
// Provides a polling-based read for clients without a socket.
type MessageHandler struct {
	history HistoryReader
}

// NewMessageHandler creates a new MessageHandler instance.
func NewMessageHandler(history HistoryReader) *MessageHandler {
	return &MessageHandler{history: history}
}

// GetMessages handles GET /api/rooms/{id}/messages
// Returns the latest messages of the room, oldest first.
// Query params:
//   - limit: at most this many messages (1-50, default 50)
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "room ID is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid 'limit' parameter")
			return
		}
		limit = n
	}

	msgs, err := h.history.Recent(r.Context(), roomID, limit)
	if err != nil {
		log.Printf("[Message] %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	response := models.GetMessagesResponse{
		Messages: make([]models.ChatMessage, 0, len(msgs)),
	}
	for i := range msgs {
		response.Messages = append(response.Messages, msgs[i].ToChatMessage())
	}

	writeJSON(w, http.StatusOK, response)
}
