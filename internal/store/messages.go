package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/adi-253/Talkie/relay/internal/models"
)

// MaxRecent is the most messages Recent will return.
const MaxRecent = 50

// MessageStore persists chat messages in a single table keyed by message id.
type MessageStore struct {
	db *gorm.DB
}

// NewMessageStore wraps an opened database.
func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Append inserts msg exactly once. The insert is committed before Append returns.
func (s *MessageStore) Append(ctx context.Context, msg *models.Message) error {
	if msg == nil {
		return &Error{Op: "append", Err: errors.New("nil message")}
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return &Error{Op: "append", Err: err}
	}
	return nil
}

// Recent returns up to limit messages for roomID ordered oldest to newest.
// The newest messages are selected first, so older history is cut off.
func (s *MessageStore) Recent(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > MaxRecent {
		limit = MaxRecent
	}

	var msgs []models.Message
	if err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Order("seq DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, &Error{Op: "recent", Err: err}
	}

	// newest -> oldest, flip for replay
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
