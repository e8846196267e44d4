package http

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"vn.io.arda/notifengine/internal/application"
)

// Client represents a connected SSE client. It holds at most one pending
// frame per event name; a newer frame replaces an undelivered older one.
type Client struct {
	id     string
	notify chan struct{}

	mu      sync.Mutex
	pending map[string][]byte
	order   []string
}

func newClient() *Client {
	return &Client{
		id:      uuid.NewString(),
		notify:  make(chan struct{}, 1),
		pending: make(map[string][]byte),
	}
}

// offer queues msg as the latest frame of event and wakes the writer.
func (c *Client) offer(event string, msg []byte) {
	c.mu.Lock()
	if _, ok := c.pending[event]; !ok {
		c.order = append(c.order, event)
	}
	c.pending[event] = msg
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// drain returns the pending frames in first-queued order and clears them.
func (c *Client) drain() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([][]byte, 0, len(c.order))
	for _, event := range c.order {
		out = append(out, c.pending[event])
	}
	clear(c.pending)
	c.order = c.order[:0]
	return out
}

// Hub manages all active SSE client connections.
// Single-instance model: all broadcast is in-process.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new SSE Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds a new SSE client.
func (h *Hub) Register() *Client {
	c := newClient()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c

	log.Debug().Str("client", c.id).Msg("SSE client connected")
	return c
}

// Unregister removes an SSE client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)

	log.Debug().Str("client", c.id).Msg("SSE client disconnected")
}

// Broadcast hands a named state event to every connected client. Clients
// that have not written the previous frame of the same event get the newer one.
func (h *Hub) Broadcast(event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg := buildSSEMessage(event, payload)
	for _, c := range h.clients {
		c.offer(event, msg)
	}
}

// ConnectedCount returns the total number of connected SSE clients.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Relay broadcasts every value published by obs as event until ctx is done.
func Relay[T any](ctx context.Context, h *Hub, event string, obs *application.Observable[T]) {
	updates, cancel := obs.Subscribe(8)
	defer cancel()

	// The current value is sent per client on connect.
	<-updates

	for {
		select {
		case v, ok := <-updates:
			if !ok {
				return
			}
			h.Broadcast(event, v)
		case <-ctx.Done():
			return
		}
	}
}

// buildSSEMessage formats a payload as an SSE frame.
func buildSSEMessage(event string, payload any) []byte {
	b, _ := json.Marshal(payload)
	return []byte("event: " + event + "\ndata: " + string(b) + "\n\n")
}
