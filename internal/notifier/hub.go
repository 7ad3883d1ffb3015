// Package notifier delivers best-effort "processing complete" events to live
// client sessions and persists notification rows for later retrieval. The
// stored status stays authoritative; a missed push is recovered by polling.
package notifier

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/rs/zerolog/log"
)

// Pusher sends an event to every live session of a user. Implementations are
// best-effort: failures are logged, never propagated.
type Pusher interface {
	PushToUser(userID string, event dto.NotificationEvent)
}

// Hub tracks open websocket connections keyed by user id. A user may hold
// several sockets at once (multiple tabs or devices). Each connection gets
// its own write mutex: gorilla allows at most one writer per connection, and
// pushes arrive from both request goroutines and the redis bridge.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]*sync.Mutex
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*websocket.Conn]*sync.Mutex)}
}

func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]*sync.Mutex)
	}
	h.conns[userID][conn] = &sync.Mutex{}
	log.Info().Str("userID", userID).Int("connections", len(h.conns[userID])).Msg("Websocket session registered")
}

func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// PushToUser writes the event to every socket the user holds. Sockets that
// fail the write are dropped from the hub.
func (h *Hub) PushToUser(userID string, event dto.NotificationEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal notification event")
		return
	}

	type socket struct {
		conn *websocket.Conn
		wmu  *sync.Mutex
	}
	h.mu.RLock()
	sockets := make([]socket, 0, len(h.conns[userID]))
	for conn, wmu := range h.conns[userID] {
		sockets = append(sockets, socket{conn: conn, wmu: wmu})
	}
	h.mu.RUnlock()

	for _, s := range sockets {
		s.wmu.Lock()
		err := s.conn.WriteMessage(websocket.TextMessage, payload)
		s.wmu.Unlock()
		if err != nil {
			log.Warn().Err(err).Str("userID", userID).Msg("Failed to push event to websocket, dropping connection")
			h.Unregister(userID, s.conn)
			s.conn.Close()
		}
	}
}

// ConnectionCount is used by tests and the health endpoint.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}
