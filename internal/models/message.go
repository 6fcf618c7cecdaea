package models

import "time"

// Kind distinguishes plain text messages from file references.
type Kind string

const (
	KindText Kind = "text"
	KindFile Kind = "file"
)

// IDPrefix returns the id prefix used for messages of this kind.
func (k Kind) IDPrefix() string {
	if k == KindFile {
		return "file-"
	}
	return "msg-"
}

// ParseKind maps client input to a Kind. Anything other than "file" is text.
func ParseKind(s string) Kind {
	if Kind(s) == KindFile {
		return KindFile
	}
	return KindText
}

// Message is a persisted chat message.
// Messages are immutable once created and are never edited or deleted by the relay.
type Message struct {
	// Seq is the insertion order; it breaks ties between equal timestamps
	Seq uint64 `gorm:"primaryKey;autoIncrement" json:"-"`

	// ID is the public identifier, prefixed by kind ("msg-" or "file-")
	ID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"id"`

	RoomID   string `gorm:"type:varchar(128);not null;index:idx_messages_room_created,priority:1" json:"room_id"`
	Username string `gorm:"type:varchar(64);not null" json:"username"`

	// Content is the message text, or the URL for file messages
	Content string `gorm:"type:text;not null" json:"content"`
	Kind    Kind   `gorm:"type:varchar(8);not null;default:text" json:"kind"`

	// Filename and Mime are only set for file messages
	Filename *string `gorm:"type:varchar(255)" json:"filename,omitempty"`
	Mime     *string `gorm:"type:varchar(128)" json:"mime,omitempty"`

	// CreatedAt is assigned once by the server at persistence time
	CreatedAt time.Time `gorm:"not null;index:idx_messages_room_created,priority:2" json:"created_at"`
}

// TableName keeps the table name stable regardless of gorm naming strategy.
func (Message) TableName() string { return "messages" }

// NewMessage carries the caller-supplied fields of a message about to be persisted.
// The id and timestamp are filled in by the message service.
type NewMessage struct {
	RoomID   string
	Username string
	Content  string
	Kind     Kind
	Filename string
	Mime     string
}

// GetMessagesResponse is the response for fetching room history over HTTP
type GetMessagesResponse struct {
	Messages []ChatMessage `json:"messages"`
}

// ChatMessage is the wire shape of a message, shared by live broadcasts and history.
type ChatMessage struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	Filename  *string   `json:"filename,omitempty"`
	Mime      *string   `json:"mime,omitempty"`
}

// ToChatMessage converts a stored message to its wire shape.
func (m *Message) ToChatMessage() ChatMessage {
	return ChatMessage{
		ID:        m.ID,
		Username:  m.Username,
		Text:      m.Content,
		Timestamp: m.CreatedAt,
		Kind:      m.Kind,
		Filename:  m.Filename,
		Mime:      m.Mime,
	}
}
