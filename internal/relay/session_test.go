package relay

import "testing"

func TestSessionTransitions(t *testing.T) {
	s := NewSession("c1")
	if s.State != StateConnected || s.IsJoined() {
		t.Fatalf("new session should be connected and unjoined, got %+v", s)
	}

	joined := s.Joined("room-A", "alice")
	if !joined.IsJoined() || joined.RoomID != "room-A" || joined.Username != "alice" {
		t.Fatalf("unexpected joined session %+v", joined)
	}
	if s.IsJoined() {
		t.Error("transition must not mutate the original value")
	}

	moved := joined.Joined("room-B", "alice")
	if moved.RoomID != "room-B" {
		t.Errorf("second join should overwrite the room, got %q", moved.RoomID)
	}

	left := moved.Left()
	if left.IsJoined() || left.State != StateConnected || left.Username != "alice" {
		t.Errorf("unexpected session after leave %+v", left)
	}

	closed := joined.Closed()
	if closed.State != StateDisconnected || closed.IsJoined() {
		t.Errorf("unexpected closed session %+v", closed)
	}
	if closed.State.String() != "disconnected" {
		t.Errorf("unexpected state name %q", closed.State.String())
	}
}
