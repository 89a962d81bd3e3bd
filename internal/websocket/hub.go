package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/feedme-app/feedme/internal/view"
)

// Message is a real-time update pushed to all connected clients: either a
// freshly rendered list view or a session change.
type Message struct {
	Type     string     `json:"type"`
	Location string     `json:"location,omitempty"`
	View     *view.List `json:"view,omitempty"`
	SignedIn bool       `json:"signed_in,omitempty"`
	UserName string     `json:"user_name,omitempty"`
}

// ViewMessage wraps a rendered list for broadcast.
func ViewMessage(location string, v view.List) Message {
	return Message{
		Type:     "view",
		Location: location,
		View:     &v,
	}
}

// SessionMessage announces a sign-in or sign-out.
func SessionMessage(signedIn bool, userName string) Message {
	return Message{
		Type:     "session",
		SignedIn: signedIn,
		UserName: userName,
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
