package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/domain"
)

type presenceEntry struct {
	RoomID        domain.RoomID
	ParticipantID domain.ParticipantID
}

// Presence maps a live connection to the (room, participant) pair it
// acts for. A connection has no entry until its client creates or
// joins a room.
type Presence struct {
	mu       sync.RWMutex
	conns    map[domain.ConnID]presenceEntry
	registry *Registry
}

func NewPresence(registry *Registry) *Presence {
	return &Presence{
		conns:    make(map[domain.ConnID]presenceEntry),
		registry: registry,
	}
}

func (p *Presence) Bind(conn domain.ConnID, room domain.RoomID, pid domain.ParticipantID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[conn] = presenceEntry{RoomID: room, ParticipantID: pid}
	log.Info().Str("module", "app.presence").Str("conn", string(conn)).Str("room", string(room)).Str("participant", string(pid)).Msg("bound")
}

func (p *Presence) Lookup(conn domain.ConnID) (domain.RoomID, domain.ParticipantID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.conns[conn]
	return e.RoomID, e.ParticipantID, ok
}

// Drop removes the binding after an explicit leave. It does not touch
// registry state; the caller already did.
func (p *Presence) Drop(conn domain.ConnID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.conns, conn)
}

// Disconnect handles a transport-level drop: the participant stays in
// the room with its connection id nulled, so a reconnect with the same
// participant id picks the entry back up. Implicit disconnect is
// recoverable; explicit leave is final.
func (p *Presence) Disconnect(conn domain.ConnID) {
	p.mu.Lock()
	_, bound := p.conns[conn]
	delete(p.conns, conn)
	p.mu.Unlock()

	if bound {
		p.registry.DetachConnection(conn)
		log.Info().Str("module", "app.presence").Str("conn", string(conn)).Msg("transient disconnect")
	}
}
