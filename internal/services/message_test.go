package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/adi-253/Talkie/relay/internal/models"
)

// memoryRepo is an in-memory MessageRepository.
type memoryRepo struct {
	msgs      []models.Message
	appendErr error
	lastLimit int
}

func (r *memoryRepo) Append(_ context.Context, msg *models.Message) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *memoryRepo) Recent(_ context.Context, roomID string, limit int) ([]models.Message, error) {
	r.lastLimit = limit
	var out []models.Message
	for _, m := range r.msgs {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestMessageService_CreateAssignsIDByKind(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewMessageService(repo)
	ctx := context.Background()

	text, err := svc.Create(ctx, models.NewMessage{RoomID: "room-A", Username: "alice", Content: "hi", Kind: models.KindText})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(text.ID, "msg-") {
		t.Errorf("expected msg- prefix, got %q", text.ID)
	}
	if text.Filename != nil || text.Mime != nil {
		t.Errorf("text message should not carry file fields, got %v %v", text.Filename, text.Mime)
	}

	file, err := svc.Create(ctx, models.NewMessage{
		RoomID: "room-A", Username: "alice", Content: "/uploads/x.png",
		Kind: models.KindFile, Filename: "x.png", Mime: "image/png",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(file.ID, "file-") {
		t.Errorf("expected file- prefix, got %q", file.ID)
	}
	if file.Filename == nil || *file.Filename != "x.png" {
		t.Errorf("expected filename x.png, got %v", file.Filename)
	}

	if text.ID == file.ID {
		t.Error("expected distinct ids")
	}
	if len(repo.msgs) != 2 {
		t.Errorf("expected 2 persisted messages, got %d", len(repo.msgs))
	}
}

func TestMessageService_TimestampsNeverGoBackwards(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewMessageService(repo)

	base := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
	clock := []time.Time{base, base.Add(-5 * time.Second), base.Add(time.Second)}
	i := 0
	svc.now = func() time.Time {
		ts := clock[i]
		i++
		return ts
	}

	var got []time.Time
	for range clock {
		msg, err := svc.Create(context.Background(), models.NewMessage{RoomID: "r", Username: "u", Content: "c", Kind: models.KindText})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		got = append(got, msg.CreatedAt)
	}

	if !got[1].Equal(base) {
		t.Errorf("expected clamped timestamp %v, got %v", base, got[1])
	}
	if !got[2].Equal(base.Add(time.Second)) {
		t.Errorf("expected %v, got %v", base.Add(time.Second), got[2])
	}
}

func TestMessageService_CreatePropagatesStoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	svc := NewMessageService(&memoryRepo{appendErr: storeErr})

	msg, err := svc.Create(context.Background(), models.NewMessage{RoomID: "r", Username: "u", Content: "c"})
	if err == nil {
		t.Fatal("expected error")
	}
	if msg != nil {
		t.Errorf("expected nil message on failure, got %+v", msg)
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestMessageService_RecentNormalizesLimit(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewMessageService(repo)

	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultHistoryLimit},
		{-3, DefaultHistoryLimit},
		{10, 10},
		{1000, DefaultHistoryLimit},
	}
	for _, tt := range tests {
		if _, err := svc.Recent(context.Background(), "room-A", tt.limit); err != nil {
			t.Fatalf("Recent(%d) error = %v", tt.limit, err)
		}
		if repo.lastLimit != tt.want {
			t.Errorf("Recent(%d): repo saw limit %d, want %d", tt.limit, repo.lastLimit, tt.want)
		}
	}
}
