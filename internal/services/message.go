package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/adi-253/Talkie/relay/internal/models"
)

// DefaultHistoryLimit is how many messages are replayed to a joining client.
const DefaultHistoryLimit = 50

// MessageRepository is the persistence the message service writes through.
type MessageRepository interface {
	Append(ctx context.Context, msg *models.Message) error
	Recent(ctx context.Context, roomID string, limit int) ([]models.Message, error)
}

// MessageService assigns identity and time to new messages and persists them.
type MessageService struct {
	repo MessageRepository
	now  func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewMessageService creates a new MessageService instance
func NewMessageService(repo MessageRepository) *MessageService {
	return &MessageService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a new message. The returned message carries its id and timestamp.
func (s *MessageService) Create(ctx context.Context, in models.NewMessage) (*models.Message, error) {
	msg := &models.Message{
		ID:        in.Kind.IDPrefix() + ulid.Make().String(),
		RoomID:    in.RoomID,
		Username:  in.Username,
		Content:   in.Content,
		Kind:      in.Kind,
		CreatedAt: s.timestamp(),
	}
	if in.Kind == models.KindFile {
		msg.Filename = optional(in.Filename)
		msg.Mime = optional(in.Mime)
	}

	if err := s.repo.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	log.Printf("[Message] Stored %s in room %s from %s", msg.ID, msg.RoomID, msg.Username)
	return msg, nil
}

// Recent returns the latest messages of a room, oldest first.
func (s *MessageService) Recent(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	msgs, err := s.repo.Recent(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for room %s: %w", roomID, err)
	}
	return msgs, nil
}

// timestamp never returns a value earlier than the previous one, even if the wall clock steps back.
func (s *MessageService) timestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
