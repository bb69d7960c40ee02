package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/course-admin-service/internal/types"
)

// Hub maintains the set of connected admin dashboards and fans events out to
// them
type Hub struct {
	// one client per admin
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	// Mutex to protect clients map
	mu sync.RWMutex

	broadcast chan *types.Event

	// closed once Run returns
	done chan struct{}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *types.Event, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and closes every client when ctx ends
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for adminID, client := range h.clients {
				client.close()
				delete(h.clients, adminID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			// one dashboard per admin, the newest wins
			if existing, exists := h.clients[client.adminID]; exists {
				existing.close()
				slog.Info("Replaced existing WebSocket connection", slog.String("admin_id", client.adminID))
			}
			h.clients[client.adminID] = client
			h.mu.Unlock()
			slog.Info("WebSocket client connected", slog.String("admin_id", client.adminID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.adminID]; ok && current == client {
				delete(h.clients, client.adminID)
				client.close()
				slog.Info("WebSocket client disconnected", slog.String("admin_id", client.adminID))
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.broadcastToAll(event)
		}
	}
}

// RegisterClient registers a new client. It reports false once the hub has
// stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToAll queues an event for every connected client
func (h *Hub) BroadcastToAll(event *types.Event) {
	select {
	case h.broadcast <- event:
	default:
		slog.Warn("Broadcast channel is full, dropping event", slog.String("type", string(event.Type)))
	}
}

func (h *Hub) broadcastToAll(event *types.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for adminID, client := range h.clients {
		if err := client.Deliver(event); err != nil {
			slog.Error("Failed to send event to client",
				slog.String("admin_id", adminID),
				slog.String("error", err.Error()))
			// drop the slow client
			go h.UnregisterClient(client)
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
