package websocket

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/adi-253/Talkie/relay/internal/relay"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	// Outbound frames buffered per client before it is considered too slow
	sendBufferSize = 256
)

// Client is a single WebSocket connection.
// session and rooms are owned by the hub goroutine.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string

	// Buffered channel of outbound frames
	send chan []byte

	session relay.Session
	rooms   map[string]bool
}

// NewClient creates a new Client instance with a fresh connection id
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	id := uuid.New().String()
	return &Client{
		hub:     hub,
		conn:    conn,
		id:      id,
		send:    make(chan []byte, sendBufferSize),
		session: relay.NewSession(id),
		rooms:   make(map[string]bool),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// ReadPump pumps frames from the WebSocket connection to the hub
// This runs in its own goroutine per client
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WebSocket] Read error from %s: %v", c.id, err)
			}
			return
		}

		if !c.hub.enqueue(&inboundFrame{client: c, data: data}) {
			return
		}
	}
}

// WritePump pumps frames from the hub to the WebSocket connection
// This runs in its own goroutine per client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON envelope per frame
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

			n := len(c.send)
			for i := 0; i < n; i++ {
				next, ok := <-c.send
				if !ok {
					c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.conn.WriteMessage(websocket.TextMessage, next); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
