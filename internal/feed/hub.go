package feed

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"ingestion-service/internal/logging"
	"ingestion-service/internal/models"
)

// Hub fans newly persisted activities out to live WebSocket subscribers.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	logger *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		conns:  make(map[*websocket.Conn]bool),
		logger: logger,
	}
}

// Add registers a subscriber connection.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
	h.logger.Infof("Added activity feed subscriber (total: %d)", len(h.conns))
}

// Remove drops a subscriber connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	h.logger.Infof("Removed activity feed subscriber (remaining: %d)", len(h.conns))
}

// Broadcast sends an activity to every subscriber, dropping connections that
// fail to take the write.
func (h *Hub) Broadcast(a models.Activity) {
	payload, err := json.Marshal(a)
	if err != nil {
		h.logger.Errorf("Failed to encode activity %s for feed: %v", a.ID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Errorf("Failed to send activity to feed subscriber: %v", err)
			delete(h.conns, conn)
		}
	}
}
