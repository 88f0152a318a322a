package websockets

import (
	"context"
	"sync"

	"github.com/salesvisit/visit-service/internal/models"
)

type Hub struct {
	clients map[*Client]bool

	register chan *Client

	unregister chan *Client

	// done is closed once Run has returned
	done chan struct{}

	// userChannels indexes clients by the user they authenticated as
	userChannels map[string]map[*Client]bool

	mu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		clients:      make(map[*Client]bool),
		userChannels: make(map[string]map[*Client]bool),
	}
}

// Publish delivers message once to each connection that belongs to one of
// userIDs or whose user holds role. An empty role matches nobody.
func (h *Hub) Publish(userIDs []string, role models.UserRole, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[*Client]bool)
	for _, id := range userIDs {
		for client := range h.userChannels[id] {
			if seen[client] {
				continue
			}
			seen[client] = true
			h.deliver(client, message)
		}
	}
	if role == "" {
		return
	}
	for client := range h.clients {
		if client.role == role && !seen[client] {
			seen[client] = true
			h.deliver(client, message)
		}
	}
}

// ConnectedUsers returns the number of distinct users with an open connection
func (h *Hub) ConnectedUsers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.userChannels)
}

// deliver queues message for client, dropping clients that cannot keep up.
// Callers hold h.mu.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.remove(client)
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if _, ok := h.userChannels[client.userID]; !ok {
		h.userChannels[client.userID] = make(map[*Client]bool)
	}
	h.userChannels[client.userID][client] = true
}

// remove forgets client and closes its send channel. Callers hold h.mu.
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if clients, ok := h.userChannels[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userChannels, client.userID)
		}
	}
}

// join hands client to Run. It reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave hands client back to Run. It returns immediately once the hub has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Run serves registrations until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.remove(client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		}
	}
}
