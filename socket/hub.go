package socket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is one gateway client waiting to hear about its session. Writes go
// through the send channel so a single writer goroutine owns the socket.
type Conn struct {
	participantID string
	ws            *websocket.Conn
	send          chan []byte
}

// Hub tracks connected clients by participant id. A participant may hold
// several connections (reconnects, multiple tabs); all of them are notified.
type Hub struct {
	mu            sync.RWMutex
	byParticipant map[string]map[*Conn]bool
}

func NewHub() *Hub {
	return &Hub{byParticipant: make(map[string]map[*Conn]bool)}
}

func (h *Hub) Add(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.byParticipant[c.participantID] == nil {
		h.byParticipant[c.participantID] = make(map[*Conn]bool)
	}
	h.byParticipant[c.participantID][c] = true
}

func (h *Hub) Remove(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns := h.byParticipant[c.participantID]; conns != nil {
		if conns[c] {
			delete(conns, c)
			close(c.send)
			if len(conns) == 0 {
				delete(h.byParticipant, c.participantID)
			}
		}
	}
}

// NotifyParticipant sends v to every connection of the participant.
// Best-effort: a connection with a full buffer skips the frame rather than
// blocking the notifier.
func (h *Hub) NotifyParticipant(participantID string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.byParticipant[participantID] {
		select {
		case c.send <- b:
		default:
		}
	}
}

// Connected reports whether the participant has at least one connection.
func (h *Hub) Connected(participantID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byParticipant[participantID]) > 0
}
