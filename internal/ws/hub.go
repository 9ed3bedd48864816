package ws

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is the wire frame pushed to clients.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub keeps the set of connected clients per user and fans events out to
// them. Delivery is best-effort and at-most-once: offline users and clients
// with a full send buffer are skipped, and Publish never blocks.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan Event
}

const sendBufferSize = 16

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]struct{})}
}

// Publish sends an event to every connected client of the user.
func (h *Hub) Publish(userID, event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- Event{Event: event, Data: payload}:
		default:
			// Slow consumer; drop rather than block the engine.
		}
	}
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Attach registers the connection and runs its read/write pumps until the
// client disconnects.
func (h *Hub) Attach(userID string, conn *websocket.Conn) {
	c := &client{
		userID: userID,
		conn:   conn,
		send:   make(chan Event, sendBufferSize),
	}
	h.register(c)
	go c.writePump()
	c.readPump(h)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// readPump discards inbound frames; the channel is server-to-client only.
// It exists to notice disconnects and close frames.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read (user=%s): %v", c.userID, err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
}
