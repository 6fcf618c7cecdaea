package relay

// State is where a connection is in its lifecycle.
type State int

const (
	StateConnected State = iota
	StateJoined
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Session is the per-connection state. It is a value: transitions return a new Session
// and the transport replaces the one it holds.
type Session struct {
	ConnID   string
	RoomID   string
	Username string
	State    State
}

// NewSession returns the state of a freshly accepted connection.
func NewSession(connID string) Session {
	return Session{ConnID: connID, State: StateConnected}
}

// Joined moves the session into roomID under username. A session that is already
// joined elsewhere simply points at the new room.
func (s Session) Joined(roomID, username string) Session {
	s.RoomID = roomID
	s.Username = username
	s.State = StateJoined
	return s
}

// Left returns the session to the unjoined state. The username is kept for
// typing notices sent before the next join.
func (s Session) Left() Session {
	s.RoomID = ""
	s.State = StateConnected
	return s
}

// Closed marks the connection as gone.
func (s Session) Closed() Session {
	s.RoomID = ""
	s.State = StateDisconnected
	return s
}

// IsJoined reports whether the session currently belongs to a room.
func (s Session) IsJoined() bool {
	return s.State == StateJoined && s.RoomID != ""
}
