// Package live pushes post events to WebSocket subscribers.
package live

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

const (
	PostCreated = "post_created"
	PostUpdated = "post_updated"
)

type Event struct {
	Type    string    `json:"type"`
	PostID  int       `json:"post_id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Group   string    `json:"group,omitempty"`
	PubDate time.Time `json:"pub_date"`
}

// sendBuffer is how many events may queue for one subscriber before it is
// considered stalled and dropped.
const sendBuffer = 16

type client struct {
	conn *websocket.Conn
	send chan Event
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub fans events out to every connected subscriber.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	errorLog *log.Logger
}

func NewHub(errorLog *log.Logger) *Hub {
	return &Hub{clients: make(map[*client]struct{}), errorLog: errorLog}
}

// ServeHTTP upgrades the request and subscribes the connection until the
// peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		return
	}
	c := &client{conn: conn, send: make(chan Event, sendBuffer)}
	h.register(c)
	go h.writePump(c)
	go h.readPump(c)
}

// readPump discards inbound frames; a read error means the peer left.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump owns all writes to the connection. It exits when the send
// channel is closed or a write fails.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(ev); err != nil {
			h.logf("live: dropping subscriber: %v", err)
			h.unregister(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(writeWait))
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	h.remove(c)
	h.mu.Unlock()
}

// remove must be called with h.mu held. Closing send stops the write pump,
// which closes the connection.
func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Publish queues ev for every subscriber without waiting on the network.
// A subscriber whose queue is full is dropped.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.logf("live: dropping stalled subscriber")
			h.remove(c)
		}
	}
}

// Len reports the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.remove(c)
	}
}

func (h *Hub) logf(format string, args ...any) {
	if h.errorLog != nil {
		h.errorLog.Printf(format, args...)
	}
}
