package relay

import (
	"context"
	"log"
	"strings"

	"github.com/adi-253/Talkie/relay/internal/models"
	"github.com/adi-253/Talkie/relay/internal/services"
)

// Registry records which display names are present in which rooms.
type Registry interface {
	Add(ctx context.Context, roomID, username string) ([]string, error)
	Remove(ctx context.Context, roomID, username string) (bool, []string, error)
	List(ctx context.Context, roomID string) ([]string, error)
	Rooms(ctx context.Context) ([]models.RoomInfoResponse, error)
}

// MessageLog persists messages and serves recent history.
type MessageLog interface {
	Create(ctx context.Context, in models.NewMessage) (*models.Message, error)
	Recent(ctx context.Context, roomID string, limit int) ([]models.Message, error)
}

// Fanout delivers events to connections. Subscriptions decide who is "in" a room
// for ToOthers and ToRoom.
type Fanout interface {
	Subscribe(connID, roomID string)
	Unsubscribe(connID, roomID string)
	ToSelf(connID string, ev Event)
	ToOthers(connID, roomID string, ev Event)
	ToRoom(roomID string, ev Event)
}

// Options tunes a Router. Zero values use defaults.
type Options struct {
	HistoryLimit int
	NewRoomID    func() (string, error)
}

// Router applies client events to the registry and the message log and decides
// who hears about them. It holds no per-connection state; callers pass the
// current Session in and keep the one returned.
//
// A Router is not safe for concurrent use. The websocket hub calls it from a
// single goroutine.
type Router struct {
	registry     Registry
	messages     MessageLog
	fanout       Fanout
	historyLimit int
	newRoomID    func() (string, error)
}

// NewRouter wires a Router.
func NewRouter(registry Registry, messages MessageLog, fanout Fanout, opts Options) *Router {
	r := &Router{
		registry:     registry,
		messages:     messages,
		fanout:       fanout,
		historyLimit: opts.HistoryLimit,
		newRoomID:    opts.NewRoomID,
	}
	if r.historyLimit <= 0 || r.historyLimit > services.DefaultHistoryLimit {
		r.historyLimit = services.DefaultHistoryLimit
	}
	if r.newRoomID == nil {
		r.newRoomID = services.NewRoomID
	}
	return r
}

// Join puts the connection into a room, tells it who is there, tells everyone else
// it arrived and replays recent history to it. Join never rejects its input.
func (r *Router) Join(ctx context.Context, sess Session, req JoinRequest) Session {
	roomID := strings.TrimSpace(req.RoomID)
	if roomID == "" {
		minted, err := r.newRoomID()
		if err != nil {
			log.Printf("[Relay] %s: %v", sess.ConnID, err)
			r.fanout.ToSelf(sess.ConnID, errorEvent(msgJoinFailed))
			return sess
		}
		roomID = minted
	}
	username := services.SanitizeUsername(req.Username)

	participants, err := r.registry.Add(ctx, roomID, username)
	if err != nil {
		log.Printf("[Relay] %s failed to join %s: %v", sess.ConnID, roomID, err)
		r.fanout.ToSelf(sess.ConnID, errorEvent(msgJoinFailed))
		return sess
	}
	if sess.IsJoined() && sess.RoomID != roomID {
		log.Printf("[Relay] %s switched from %s to %s without leaving", sess.ConnID, sess.RoomID, roomID)
	}

	r.fanout.Subscribe(sess.ConnID, roomID)
	r.fanout.ToSelf(sess.ConnID, Event{Type: EventJoined, Payload: JoinedPayload{RoomID: roomID, Participants: participants}})
	r.fanout.ToOthers(sess.ConnID, roomID, Event{Type: EventUserJoined, Payload: PresencePayload{Username: username, Participants: participants}})
	log.Printf("[Relay] %s joined %s as %q (participants: %d)", sess.ConnID, roomID, username, len(participants))

	r.replayHistory(ctx, sess.ConnID, roomID)

	return sess.Joined(roomID, username)
}

// Send persists a message and then broadcasts it to the whole room, sender included.
// When ack is non-nil exactly one Ack is written to it, so it needs room for one value.
func (r *Router) Send(ctx context.Context, sess Session, req SendRequest, ack chan<- Ack) error {
	roomID := resolve(req.RoomID, sess.RoomID)
	text := strings.TrimSpace(req.Text)
	if roomID == "" || text == "" {
		r.reject(sess.ConnID, ack)
		return ErrInvalidPayload
	}

	in := models.NewMessage{
		RoomID:   roomID,
		Username: services.SanitizeUsername(resolve(req.Username, sess.Username)),
		Content:  text,
		Kind:     models.ParseKind(req.Kind),
		Filename: strings.TrimSpace(req.Filename),
		Mime:     strings.TrimSpace(req.Mime),
	}
	msg, err := r.persist(ctx, sess.ConnID, in, ack)
	if err != nil {
		return err
	}

	r.fanout.ToRoom(roomID, chatMessageEvent(msg))
	reply(ack, Ack{OK: true, ID: msg.ID})
	return nil
}

// File records a shared file reference and broadcasts it to the whole room.
func (r *Router) File(ctx context.Context, sess Session, req FileRequest, ack chan<- Ack) error {
	roomID := resolve(req.RoomID, sess.RoomID)
	url := strings.TrimSpace(req.URL)
	if roomID == "" || url == "" {
		r.reject(sess.ConnID, ack)
		return ErrInvalidPayload
	}

	in := models.NewMessage{
		RoomID:   roomID,
		Username: services.SanitizeUsername(resolve(req.Username, sess.Username)),
		Content:  url,
		Kind:     models.KindFile,
		Filename: strings.TrimSpace(req.Filename),
		Mime:     strings.TrimSpace(req.Mime),
	}
	msg, err := r.persist(ctx, sess.ConnID, in, ack)
	if err != nil {
		return err
	}

	r.fanout.ToRoom(roomID, Event{Type: EventFile, Payload: FilePayload{
		ID:        msg.ID,
		Username:  msg.Username,
		URL:       msg.Content,
		Filename:  in.Filename,
		Mime:      in.Mime,
		Timestamp: msg.CreatedAt,
	}})
	reply(ack, Ack{OK: true, ID: msg.ID})
	return nil
}

// Typing relays a typing indicator to everyone else in the room.
func (r *Router) Typing(sess Session, req TypingRequest) {
	r.relayTyping(sess, req, EventTyping)
}

// StopTyping relays the end of a typing indicator to everyone else in the room.
func (r *Router) StopTyping(sess Session, req TypingRequest) {
	r.relayTyping(sess, req, EventStopTyping)
}

func (r *Router) relayTyping(sess Session, req TypingRequest, eventType string) {
	roomID := resolve(req.RoomID, sess.RoomID)
	if roomID == "" {
		return
	}
	username := services.SanitizeUsername(sess.Username)
	r.fanout.ToOthers(sess.ConnID, roomID, Event{Type: eventType, Payload: TypingPayload{Username: username}})
}

// Leave removes the participant from a room and tells the remaining members.
// Leaving twice is silent the second time.
func (r *Router) Leave(ctx context.Context, sess Session, req LeaveRequest) Session {
	roomID := resolve(req.RoomID, sess.RoomID)
	username := resolve(req.Username, sess.Username)
	if roomID == "" || username == "" {
		return sess
	}

	r.fanout.Unsubscribe(sess.ConnID, roomID)
	next := sess
	if roomID == sess.RoomID {
		next = sess.Left()
	}

	removed, participants, err := r.registry.Remove(ctx, roomID, username)
	if err != nil {
		log.Printf("[Relay] %s failed to leave %s: %v", sess.ConnID, roomID, err)
		return next
	}
	if !removed {
		return next
	}

	r.fanout.ToOthers(sess.ConnID, roomID, Event{Type: EventUserLeft, Payload: PresencePayload{Username: username, Participants: participants}})
	r.fanout.ToOthers(sess.ConnID, roomID, Event{Type: EventParticipants, Payload: ParticipantsPayload{Participants: participants}})
	log.Printf("[Relay] %s (%q) left %s (remaining: %d)", sess.ConnID, username, roomID, len(participants))
	return next
}

// Disconnect performs an implicit leave for a joined session and closes it.
func (r *Router) Disconnect(ctx context.Context, sess Session) Session {
	if sess.IsJoined() {
		sess = r.Leave(ctx, sess, LeaveRequest{})
	}
	return sess.Closed()
}

// persist creates the message, reporting a store failure to the sender only.
func (r *Router) persist(ctx context.Context, connID string, in models.NewMessage, ack chan<- Ack) (*models.Message, error) {
	msg, err := r.messages.Create(ctx, in)
	if err != nil {
		log.Printf("[Relay] %s: %v", connID, err)
		r.fanout.ToSelf(connID, errorEvent(msgSendFailed))
		reply(ack, Ack{OK: false, Error: msgSendFailed})
		return nil, err
	}
	return msg, nil
}

// reject reports ErrInvalidPayload through the ack if one was requested,
// otherwise as an error notice.
func (r *Router) reject(connID string, ack chan<- Ack) {
	if ack != nil {
		reply(ack, Ack{OK: false, Error: msgInvalidPayload})
		return
	}
	r.fanout.ToSelf(connID, errorEvent(msgInvalidPayload))
}

func reply(ack chan<- Ack, a Ack) {
	if ack != nil {
		ack <- a
	}
}

func resolve(given, fallback string) string {
	if v := strings.TrimSpace(given); v != "" {
		return v
	}
	return fallback
}
