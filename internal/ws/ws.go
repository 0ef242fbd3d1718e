// Package ws pushes session lifecycle events to WebSocket subscribers.
package ws

import (
	"context"
	"log/slog"
	"sync"

	"nhooyr.io/websocket"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/session"
)

// SnapshotFunc returns the payload of a full_state message.
type SnapshotFunc func() (any, error)

// Hub manages WebSocket connections and broadcasts messages to all clients.
// It implements session.Observer.
type Hub struct {
	clients        map[*Client]bool
	broadcast      chan []byte
	register       chan *Client
	unregister     chan *Client
	done           chan struct{}
	logger         *slog.Logger
	mu             sync.RWMutex
	snapshot       SnapshotFunc
	originPatterns []string
}

// Client represents a single WebSocket connection.
type Client struct {
	hub  *Hub
	send chan []byte
	conn *websocket.Conn

	// closed is guarded by hub.mu and set once send has been closed.
	closed bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithSnapshot sets the function that produces full_state payloads for new
// and re-syncing clients.
func WithSnapshot(fn SnapshotFunc) Option {
	return func(h *Hub) { h.snapshot = fn }
}

// WithOriginPatterns restricts which browser origins may connect.
func WithOriginPatterns(patterns []string) Option {
	return func(h *Hub) { h.originPatterns = patterns }
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *slog.Logger, opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Run starts the hub's event loop. It returns when ctx is done, closing
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				h.closeClient(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.closeClient(client)
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected")

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.closeClient(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for all connected clients. It never blocks:
// when the queue is full the message is dropped.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message")
	}
}

// BroadcastJSON broadcasts payload with the given message type.
func (h *Hub) BroadcastJSON(msgType MessageType, payload any) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		h.logger.Error("failed to create broadcast message", "type", msgType, "error", err)
		return
	}
	h.Broadcast(msg)
}

// SessionChanged forwards a session event to every client.
func (h *Hub) SessionChanged(event string, s session.Summary) {
	h.BroadcastJSON(MessageType(event), s)
}

// closeClient drops c and closes its send channel. Callers hold h.mu.
func (h *Hub) closeClient(c *Client) {
	delete(h.clients, c)
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// deliver queues msg for one client without blocking. It reports false when
// the client has already been dropped or its queue is full.
func (h *Hub) deliver(c *Client, msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fullState() ([]byte, bool) {
	if h.snapshot == nil {
		return nil, false
	}
	payload, err := h.snapshot()
	if err != nil {
		h.logger.Error("building full state", "error", err)
		return nil, false
	}
	msg, err := NewMessage(MsgFullState, payload)
	if err != nil {
		h.logger.Error("failed to create full_state message", "error", err)
		return nil, false
	}
	return msg, true
}
