package relay

import (
	"time"

	"github.com/adi-253/Talkie/relay/internal/models"
)

// Inbound event types.
const (
	EventJoin        = "join"
	EventSendMessage = "send-message"
	EventFile        = "file"
	EventTyping      = "typing"
	EventStopTyping  = "stop-typing"
	EventLeave       = "leave"
)

// Outbound event types.
const (
	EventJoined       = "joined"
	EventUserJoined   = "user-joined"
	EventChatMessage  = "chat-message"
	EventUserLeft     = "user-left"
	EventParticipants = "participants"
	EventError        = "error-message"
	EventAck          = "ack"
)

// Event is one outbound notification. Payload is marshalled by the transport.
type Event struct {
	Type    string
	Payload any
}

// JoinRequest is the payload of a join event.
type JoinRequest struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

// SendRequest is the payload of a send-message event.
type SendRequest struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
	Text     string `json:"text"`
	Kind     string `json:"kind"`
	Filename string `json:"filename"`
	Mime     string `json:"mime"`
}

// FileRequest is the payload of a file event.
type FileRequest struct {
	URL      string `json:"url"`
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
	Filename string `json:"filename"`
	Mime     string `json:"mime"`
}

// TypingRequest is the payload of typing and stop-typing events.
type TypingRequest struct {
	RoomID string `json:"room_id"`
}

// LeaveRequest is the payload of a leave event.
type LeaveRequest struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

// JoinedPayload is sent to the joining connection only.
type JoinedPayload struct {
	RoomID       string   `json:"room_id"`
	Participants []string `json:"participants"`
}

// PresencePayload is used by user-joined and user-left.
type PresencePayload struct {
	Username     string   `json:"username"`
	Participants []string `json:"participants"`
}

// ParticipantsPayload carries the current participant list.
type ParticipantsPayload struct {
	Participants []string `json:"participants"`
}

// FilePayload is broadcast when a file is shared.
type FilePayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	Mime      string    `json:"mime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TypingPayload names who is typing.
type TypingPayload struct {
	Username string `json:"username"`
}

// ErrorPayload is a user-visible failure notice.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Ack answers an event that asked for confirmation.
type Ack struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

func chatMessageEvent(msg *models.Message) Event {
	return Event{Type: EventChatMessage, Payload: msg.ToChatMessage()}
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: message}}
}
