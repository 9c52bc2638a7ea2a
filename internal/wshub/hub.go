package wshub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"wordrush/internal/metrics"
)

// Client represents a single WebSocket connection in a room's hub. A user may
// hold more than one connection at a time (reconnects race the old socket).
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket
// connection. It is the only writer for the connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub is one room's connection registry. Fan-out never blocks: a client whose
// send queue is full misses the message rather than stalling the session.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	metrics.ConnectionsOpen.Inc()
}

// Unregister removes a client and closes its Send channel. Game state is
// untouched; a dropped connection is a connectivity fault, not a game event.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		close(c.Send)
		delete(h.clients, c)
		metrics.ConnectionsOpen.Dec()
	}
}

// Broadcast sends a message to every connection in the room.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("hub: marshal broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}

// SendTo sends a message to every connection held by one user.
func (h *Hub) SendTo(userID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("hub: marshal send")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.UserID != userID {
			continue
		}
		select {
		case c.Send <- data:
		default:
		}
	}
}

// CloseAll tears down every connection, ending their write pumps. Used when
// the room is removed from the directory.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
		if c.Conn != nil {
			c.Conn.Close(websocket.StatusGoingAway, "room closed")
		}
		metrics.ConnectionsOpen.Dec()
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
