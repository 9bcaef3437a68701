// Package live streams running sessions to WebSocket spectators. A Hub
// fans every tick event out to the connections subscribed to that match;
// spectators are read-only and can never inject actions into a session.
package live

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types pushed to spectators.
const (
	EventConnected = "connected"
	EventTick      = "tick"
	EventEnded     = "ended"
)

const sendBufferSize = 256

// Event is the envelope for every message pushed to a spectator.
type Event struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id"`
	Data    any    `json:"data"`
}

// clientMessage is the envelope for messages sent by a spectator.
type clientMessage struct {
	Action  string `json:"action"` // "subscribe" or "unsubscribe"
	MatchID string `json:"match_id"`
}

// Conn wraps one spectator connection with its outbound queue.
type Conn struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks spectator connections and their per-match subscriptions.
type Hub struct {
	mu          sync.RWMutex
	connections map[*Conn]bool
	matches     map[string]map[*Conn]bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*Conn]bool),
		matches:     make(map[string]map[*Conn]bool),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions,
// then closes its outbound queue.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[c] {
		return
	}
	delete(h.connections, c)
	for matchID, conns := range h.matches {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.matches, matchID)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to a match channel.
func (h *Hub) Subscribe(c *Conn, matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.matches[matchID] == nil {
		h.matches[matchID] = make(map[*Conn]bool)
	}
	h.matches[matchID][c] = true
}

// Unsubscribe removes a connection from a match channel.
func (h *Hub) Unsubscribe(c *Conn, matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.matches[matchID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.matches, matchID)
		}
	}
}

// Broadcast sends an event to every connection subscribed to a match.
// A spectator whose queue is full misses the event rather than stalling
// the session that produced it.
func (h *Hub) Broadcast(matchID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Msgf("failed to marshal %s event for match %s: %v", event.Type, matchID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.matches[matchID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Msgf("dropping %s event for match %s, spectator buffer full", event.Type, matchID)
		}
	}
}

// ConnectionCount reports the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// SubscriberCount reports the number of connections watching a match.
func (h *Hub) SubscriberCount(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.matches[matchID])
}
