package realtime

import (
	"encoding/json"
	"sync"
)

// Client represents a single websocket client connection.
// The network conn itself is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Event is the JSON frame pushed to connected users.
type Event struct {
	Type    string `json:"type"`
	TaskID  string `json:"taskId,omitempty"`
	ActorID string `json:"actorId,omitempty"`
	Kind    string `json:"kind,omitempty"`
	At      string `json:"at"`
}

// Hub maintains active user connections and broadcasts events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[Client]struct{})}
}

// Register adds a client under a user ID.
func (h *Hub) Register(userID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

// Unregister removes a client; if user has no more clients, cleans up map.
func (h *Hub) Unregister(userID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

// Connected returns how many clients a user has open.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Broadcast sends a message to all clients of a user and returns how many
// accepted it. Failed clients are cleaned up by their handler.
func (h *Hub) Broadcast(userID string, message []byte) int {
	h.mu.RLock()
	clients := make([]Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if c.Send(message) {
			sent++
		}
	}
	return sent
}

// Publish encodes ev and broadcasts it to userID.
func (h *Hub) Publish(userID string, ev Event) (int, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return 0, err
	}
	return h.Broadcast(userID, raw), nil
}
