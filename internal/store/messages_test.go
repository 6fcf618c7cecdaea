package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adi-253/Talkie/relay/internal/models"
)

// setupTestDB opens a private in-memory database for one test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(Options{
		Path:     fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { Close(db) })
	return db
}

func newTestMessage(id, room, content string, at time.Time) *models.Message {
	return &models.Message{
		ID:        id,
		RoomID:    room,
		Username:  "alice",
		Content:   content,
		Kind:      models.KindText,
		CreatedAt: at,
	}
}

func TestMessageStore_AppendAndRecent(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		msg := newTestMessage(fmt.Sprintf("msg-%d", i), "room-A", fmt.Sprintf("hello %d", i), base.Add(time.Duration(i)*time.Second))
		if err := s.Append(ctx, msg); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := s.Recent(ctx, "room-A", 50)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, m := range got {
		if want := fmt.Sprintf("msg-%d", i); m.ID != want {
			t.Errorf("message %d: expected id %q, got %q", i, want, m.ID)
		}
	}
}

func TestMessageStore_RecentKeepsNewest(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 60; i++ {
		msg := newTestMessage(fmt.Sprintf("msg-%02d", i), "room-A", "x", base.Add(time.Duration(i)*time.Millisecond))
		if err := s.Append(ctx, msg); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := s.Recent(ctx, "room-A", 50)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(got))
	}
	if got[0].ID != "msg-10" {
		t.Errorf("expected oldest returned message msg-10, got %s", got[0].ID)
	}
	if got[49].ID != "msg-59" {
		t.Errorf("expected newest returned message msg-59, got %s", got[49].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Fatalf("messages out of order at %d: %v before %v", i, got[i].CreatedAt, got[i-1].CreatedAt)
		}
	}
}

func TestMessageStore_RecentClampsLimit(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < MaxRecent+5; i++ {
		if err := s.Append(ctx, newTestMessage(fmt.Sprintf("msg-%d", i), "room-A", "x", base.Add(time.Duration(i)))); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	for _, limit := range []int{0, -1, 500} {
		got, err := s.Recent(ctx, "room-A", limit)
		if err != nil {
			t.Fatalf("Recent(%d) error = %v", limit, err)
		}
		if len(got) != MaxRecent {
			t.Errorf("Recent(%d): expected %d messages, got %d", limit, MaxRecent, len(got))
		}
	}

	got, err := s.Recent(ctx, "room-A", 3)
	if err != nil {
		t.Fatalf("Recent(3) error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Recent(3): expected 3 messages, got %d", len(got))
	}
}

func TestMessageStore_RecentTieBreaksByInsertOrder(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ids := []string{"msg-c", "msg-a", "msg-b"}
	for _, id := range ids {
		if err := s.Append(ctx, newTestMessage(id, "room-A", id, at)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := s.Recent(ctx, "room-A", 50)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != len(ids) {
		t.Fatalf("expected %d messages, got %d", len(ids), len(got))
	}
	for i, id := range ids {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestMessageStore_RecentIsolatesRooms(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Append(ctx, newTestMessage("msg-1", "room-A", "a", now)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(ctx, newTestMessage("msg-2", "room-B", "b", now)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := s.Recent(ctx, "room-B", 50)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "msg-2" {
		t.Fatalf("expected only msg-2, got %+v", got)
	}

	empty, err := s.Recent(ctx, "room-missing", 50)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no messages for unknown room, got %d", len(empty))
	}
}

func TestMessageStore_AppendDuplicateID(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Append(ctx, newTestMessage("msg-dup", "room-A", "first", now)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	err := s.Append(ctx, newTestMessage("msg-dup", "room-A", "second", now))
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
	var storeErr *Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *store.Error, got %T", err)
	}
	if storeErr.Op != "append" {
		t.Errorf("expected op append, got %q", storeErr.Op)
	}

	got, _ := s.Recent(ctx, "room-A", 50)
	if len(got) != 1 || got[0].Content != "first" {
		t.Errorf("expected the original message to survive, got %+v", got)
	}
}

func TestMessageStore_FileFields(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()

	name, mime := "cat.png", "image/png"
	msg := &models.Message{
		ID:        "file-1",
		RoomID:    "room-A",
		Username:  "bob",
		Content:   "/uploads/1700000000000-abc.png",
		Kind:      models.KindFile,
		Filename:  &name,
		Mime:      &mime,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Append(ctx, msg); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := s.Recent(ctx, "room-A", 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].Kind != models.KindFile {
		t.Errorf("expected kind file, got %q", got[0].Kind)
	}
	if got[0].Filename == nil || *got[0].Filename != name {
		t.Errorf("expected filename %q, got %v", name, got[0].Filename)
	}
	if got[0].Mime == nil || *got[0].Mime != mime {
		t.Errorf("expected mime %q, got %v", mime, got[0].Mime)
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestPing(t *testing.T) {
	db := setupTestDB(t)
	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
