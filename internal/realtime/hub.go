// Package realtime pushes server events to connected websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// DefaultBuffer is the per-client queue length used when none is configured.
const DefaultBuffer = 16

// Message is the envelope written to clients.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Publisher delivers messages to every connected client.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

type client struct {
	send chan []byte
}

// Hub tracks local websocket clients. Delivery is at-most-once: a client whose
// queue is full misses the message.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	buffer  int
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[*client]struct{}), buffer: buffer, logger: logger}
}

// Publish encodes msg and broadcasts it to local clients.
func (h *Hub) Publish(_ context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.Broadcast(payload)
	return nil
}

// Broadcast queues payload on every client and returns how many accepted it.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients {
		select {
		case c.send <- payload:
			delivered++
		default:
			h.logger.Debug("dropping push message for slow client")
		}
	}
	return delivered
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register() *client {
	c := &client{send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
