package realtime

import (
	"sync"
)

// Client is a single connection able to receive serialized events.
// The network conn itself is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub maintains active user connections and broadcasts events to them.
type Hub struct {
	mu            sync.RWMutex
	clientsByUser map[uint]map[Client]struct{}
}

var hubInstance *Hub
var once sync.Once

// NewHub returns an empty hub. Most callers want GetHub.
func NewHub() *Hub {
	return &Hub{clientsByUser: make(map[uint]map[Client]struct{})}
}

// GetHub returns the process-wide hub.
func GetHub() *Hub {
	once.Do(func() {
		hubInstance = NewHub()
	})
	return hubInstance
}

// Register adds a client under a user ID.
func (h *Hub) Register(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clientsByUser[userID]; !ok {
		h.clientsByUser[userID] = make(map[Client]struct{})
	}
	h.clientsByUser[userID][client] = struct{}{}
}

// Unregister removes a client; if user has no more clients, cleans up map.
func (h *Hub) Unregister(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clientsByUser[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clientsByUser, userID)
		}
	}
}

// Connections returns how many clients the user has open.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clientsByUser[userID])
}

// Broadcast sends a message to all clients of a user and returns how many
// accepted it. Sends run outside the lock, so a slow client cannot stall
// Register, Unregister or other broadcasts. Failed clients are left for
// their handler to clean up.
func (h *Hub) Broadcast(userID uint, message []byte) int {
	h.mu.RLock()
	clients := make([]Client, 0, len(h.clientsByUser[userID]))
	for c := range h.clientsByUser[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range clients {
		if c.Send(message) {
			delivered++
		}
	}
	return delivered
}
