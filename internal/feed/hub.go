package feed

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"animehub/internal/release"
)

// Hub fans release announcements out to connected websocket subscribers.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	sent    uint64
}

type Stats struct {
	Clients      int    `json:"clients"`
	SentMessages uint64 `json:"sent_messages"`
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) Add(ws *websocket.Conn) {
	h.mu.Lock()
	h.clients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Broadcast sends the announcement to every subscriber. Clients that fail to
// take the write are dropped.
func (h *Hub) Broadcast(ann release.Announcement) {
	b, err := json.Marshal(ann)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ws := range h.clients {
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.clients, ws)
			continue
		}
		h.sent++
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		Clients:      len(h.clients),
		SentMessages: h.sent,
	}
}
