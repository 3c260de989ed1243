package ws

import (
	"sync"

	"github.com/dkeye/CodeRoom/internal/domain"
)

// Hub maps live connection ids to their outbound endpoints. Lookup is
// the only synchronization the signaling fan-out needs.
type Hub struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[domain.ConnID]*Conn)}
}

func (h *Hub) Register(id domain.ConnID, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = c
}

func (h *Hub) Unregister(id domain.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

func (h *Hub) Get(id domain.ConnID) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
