package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/swipectl/internal/gesture"
)

const (
	writeWait    = 5 * time.Second
	clientBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventMessage is the JSON pushed to feed clients for each swipe.
type EventMessage struct {
	ID      string       `json:"id"`
	Gesture gesture.Kind `json:"gesture"`
	Label   string       `json:"label"`
	At      time.Time    `json:"at"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// EventHub pushes emitted gestures to WebSocket clients. A slow client loses
// messages instead of holding up the others.
type EventHub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *slog.Logger

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewEventHub creates an empty hub.
func NewEventHub(logger *slog.Logger) *EventHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHub{
		clients: make(map[*client]struct{}),
		logger:  logger.With("component", "events"),
	}
}

// Broadcast queues ev for every connected client.
func (h *EventHub) Broadcast(ev gesture.Event) {
	msg, err := json.Marshal(EventMessage{
		ID:      ev.ID,
		Gesture: ev.Kind,
		Label:   ev.Kind.String(),
		At:      ev.At,
	})
	if err != nil {
		h.logger.Error("encode event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
			h.sent.Add(1)
		default:
			h.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("feed client connected", "remote", r.RemoteAddr, "clients", count)

	done := make(chan struct{})
	go h.writeLoop(c, done)

	// Reads only detect the close; clients send nothing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(done)
	conn.Close()
	h.logger.Debug("feed client disconnected", "remote", r.RemoteAddr)
}

func (h *EventHub) writeLoop(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}
