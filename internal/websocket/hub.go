package websocket

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"
	"sync"

	"github.com/adi-253/Talkie/relay/internal/relay"
)

const internalErrorMessage = "Internal error"

// EventRouter applies client events. relay.Router implements it.
type EventRouter interface {
	Join(ctx context.Context, sess relay.Session, req relay.JoinRequest) relay.Session
	Send(ctx context.Context, sess relay.Session, req relay.SendRequest, ack chan<- relay.Ack) error
	File(ctx context.Context, sess relay.Session, req relay.FileRequest, ack chan<- relay.Ack) error
	Typing(sess relay.Session, req relay.TypingRequest)
	StopTyping(sess relay.Session, req relay.TypingRequest)
	Leave(ctx context.Context, sess relay.Session, req relay.LeaveRequest) relay.Session
	Disconnect(ctx context.Context, sess relay.Session) relay.Session
}

// Hub owns every live connection and processes their events one at a time.
// It implements relay.Fanout; the router calls back into it from the Run goroutine.
type Hub struct {
	router EventRouter

	// clients maps connection id to client
	clients map[string]*Client

	// rooms maps roomID to the set of subscribed clients
	rooms map[string]map[*Client]bool

	// slow clients overflowed their send buffer and are dropped after the current event
	slow map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	inbound    chan *inboundFrame
	done       chan struct{}

	// guards clients and rooms for readers outside the Run goroutine
	mu sync.RWMutex
}

// NewHub creates a new Hub instance. Attach a router with UseRouter before Run.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[*Client]bool),
		slow:       make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *inboundFrame, 256),
		done:       make(chan struct{}),
	}
}

// UseRouter sets the router that handles client events.
func (h *Hub) UseRouter(router EventRouter) {
	h.router = router
}

// Run processes registrations and client events until ctx is cancelled.
// This should be called in a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll(context.WithoutCancel(ctx))
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(ctx, client)

		case frame := <-h.inbound:
			h.handle(ctx, frame)
		}
		h.dropSlowClients(ctx)
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register hands a new client to the hub. It returns false if the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister asks the hub to disconnect a client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) enqueue(frame *inboundFrame) bool {
	select {
	case h.inbound <- frame:
		return true
	case <-h.done:
		return false
	}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetRoomClientCount returns the number of connections subscribed to a room
func (h *Hub) GetRoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[WebSocket] Client %s connected (total: %d)", client.id, total)
}

// unregisterClient runs the disconnect protocol and releases the connection.
// It is a no-op for clients that are already gone.
func (h *Hub) unregisterClient(ctx context.Context, client *Client) {
	h.mu.RLock()
	_, ok := h.clients[client.id]
	h.mu.RUnlock()
	if !ok {
		return
	}

	client.session = h.router.Disconnect(ctx, client.session)

	h.mu.Lock()
	for roomID := range client.rooms {
		h.removeFromRoom(client, roomID)
	}
	delete(h.clients, client.id)
	total := len(h.clients)
	h.mu.Unlock()

	delete(h.slow, client)
	close(client.send)
	log.Printf("[WebSocket] Client %s disconnected (remaining: %d)", client.id, total)
}

func (h *Hub) dropSlowClients(ctx context.Context) {
	for len(h.slow) > 0 {
		for client := range h.slow {
			log.Printf("[WebSocket] Dropping slow client %s", client.id)
			h.unregisterClient(ctx, client)
			delete(h.slow, client)
		}
	}
}

func (h *Hub) closeAll(ctx context.Context) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregisterClient(ctx, c)
	}
	log.Printf("[WebSocket] Hub stopped, closed %d connections", len(clients))
}

// handle dispatches one frame. A panic is reported to the sender only and the
// loop keeps running.
func (h *Hub) handle(ctx context.Context, frame *inboundFrame) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[WebSocket] Panic handling frame from %s: %v\n%s", frame.client.id, rec, debug.Stack())
			h.ToSelf(frame.client.id, relay.Event{Type: relay.EventError, Payload: relay.ErrorPayload{Message: internalErrorMessage}})
		}
	}()
	h.dispatch(ctx, frame)
}

// dispatch decodes one frame and routes it.
func (h *Hub) dispatch(ctx context.Context, frame *inboundFrame) {
	c := frame.client
	h.mu.RLock()
	_, live := h.clients[c.id]
	h.mu.RUnlock()
	if !live {
		return
	}

	var env inboundEnvelope
	if err := json.Unmarshal(frame.data, &env); err != nil || env.Type == "" {
		h.ToSelf(c.id, relay.Event{Type: relay.EventError, Payload: relay.ErrorPayload{Message: "Malformed message"}})
		return
	}

	switch env.Type {
	case relay.EventJoin:
		var req relay.JoinRequest
		if h.decode(c, &env, &req) {
			c.session = h.router.Join(ctx, c.session, req)
		}

	case relay.EventSendMessage:
		var req relay.SendRequest
		if h.decode(c, &env, &req) {
			ack := ackChannel(&env)
			h.router.Send(ctx, c.session, req, ack)
			h.flushAck(c, &env, ack)
		}

	case relay.EventFile:
		var req relay.FileRequest
		if h.decode(c, &env, &req) {
			ack := ackChannel(&env)
			h.router.File(ctx, c.session, req, ack)
			h.flushAck(c, &env, ack)
		}

	case relay.EventTyping, relay.EventStopTyping:
		var req relay.TypingRequest
		if h.decode(c, &env, &req) {
			if env.Type == relay.EventTyping {
				h.router.Typing(c.session, req)
			} else {
				h.router.StopTyping(c.session, req)
			}
		}

	case relay.EventLeave:
		var req relay.LeaveRequest
		if h.decode(c, &env, &req) {
			c.session = h.router.Leave(ctx, c.session, req)
		}

	default:
		h.ToSelf(c.id, relay.Event{Type: relay.EventError, Payload: relay.ErrorPayload{Message: "Unknown event: " + env.Type}})
	}
}

// decode reports an undecodable payload the same way the router reports invalid input.
func (h *Hub) decode(c *Client, env *inboundEnvelope, v any) bool {
	if err := env.decodePayload(v); err != nil {
		log.Printf("[WebSocket] Bad %s payload from %s: %v", env.Type, c.id, err)
		if env.wantsAck() {
			h.writeTo(c, outboundEnvelope{Type: relay.EventAck, Ack: env.Ack, Payload: relay.Ack{OK: false, Error: "Invalid payload"}})
		} else {
			h.ToSelf(c.id, relay.Event{Type: relay.EventError, Payload: relay.ErrorPayload{Message: "Invalid payload"}})
		}
		return false
	}
	return true
}

func ackChannel(env *inboundEnvelope) chan relay.Ack {
	if !env.wantsAck() {
		return nil
	}
	return make(chan relay.Ack, 1)
}

func (h *Hub) flushAck(c *Client, env *inboundEnvelope, ack chan relay.Ack) {
	if ack == nil {
		return
	}
	select {
	case a := <-ack:
		h.writeTo(c, outboundEnvelope{Type: relay.EventAck, Ack: env.Ack, Payload: a})
	default:
	}
}

// Subscribe adds a connection to a room's delivery set.
func (h *Hub) Subscribe(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

// Unsubscribe removes a connection from a room's delivery set.
func (h *Hub) Unsubscribe(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[connID]; ok {
		h.removeFromRoom(client, roomID)
	}
}

// removeFromRoom must be called with mu held.
func (h *Hub) removeFromRoom(client *Client, roomID string) {
	delete(client.rooms, roomID)
	clients, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.rooms, roomID)
	}
}

// ToSelf delivers an event to one connection.
func (h *Hub) ToSelf(connID string, ev relay.Event) {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.writeTo(client, outboundEnvelope{Type: ev.Type, Payload: ev.Payload})
}

// ToOthers delivers an event to every connection in a room except connID.
func (h *Hub) ToOthers(connID, roomID string, ev relay.Event) {
	h.broadcast(roomID, connID, ev)
}

// ToRoom delivers an event to every connection in a room.
func (h *Hub) ToRoom(roomID string, ev relay.Event) {
	h.broadcast(roomID, "", ev)
}

func (h *Hub) broadcast(roomID, exceptID string, ev relay.Event) {
	data, err := json.Marshal(outboundEnvelope{Type: ev.Type, Payload: ev.Payload})
	if err != nil {
		log.Printf("[WebSocket] Failed to encode %s: %v", ev.Type, err)
		return
	}

	h.mu.RLock()
	recipients := make([]*Client, 0, len(h.rooms[roomID]))
	for client := range h.rooms[roomID] {
		if client.id != exceptID {
			recipients = append(recipients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range recipients {
		h.push(client, data)
	}
}

func (h *Hub) writeTo(client *Client, env outboundEnvelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[WebSocket] Failed to encode %s: %v", env.Type, err)
		return
	}
	h.push(client, data)
}

// push never blocks; a full buffer marks the client for removal.
func (h *Hub) push(client *Client, data []byte) {
	if _, dropping := h.slow[client]; dropping {
		return
	}
	select {
	case client.send <- data:
	default:
		h.slow[client] = struct{}{}
	}
}
