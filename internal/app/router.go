package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/domain"
)

// Router is the event broadcast router: each handler validates the
// inbound event against the registry, mutates state if valid, and
// returns the fan-out as a list of deliveries. It holds no transport
// state, which keeps every path testable without a socket.
//
// Ordering: the transport calls handlers for one connection from a
// single read loop, so events from one connection are processed in
// arrival order. Events from different connections interleave; the
// last SetDocument wins.
type Router struct {
	registry *Registry
	presence *Presence
	chat     *ChatRateLimiter
	now      func() time.Time
}

func NewRouter(registry *Registry, presence *Presence, chat *ChatRateLimiter) *Router {
	return &Router{
		registry: registry,
		presence: presence,
		chat:     chat,
		now:      time.Now,
	}
}

func (rt *Router) CreateRoom(conn domain.ConnID, ev CreateRoom) []Delivery {
	roomID := domain.NormalizeRoomID(ev.RoomID)
	pid := domain.ParticipantID(ev.ParticipantID)
	if pid == "" {
		return errorTo(conn, "participantId required")
	}

	snap, err := rt.registry.Create(roomID, pid, ev.DisplayName, conn, ev.Passcode)
	if err != nil {
		return errorTo(conn, err.Error())
	}
	rt.presence.Bind(conn, roomID, pid)
	return []Delivery{{To: conn, Event: RoomCreated{Type: EvRoomCreated, Snapshot: snap}}}
}

func (rt *Router) JoinRoom(conn domain.ConnID, ev JoinRoom) []Delivery {
	roomID := domain.NormalizeRoomID(ev.RoomID)
	pid := domain.ParticipantID(ev.ParticipantID)
	if pid == "" {
		return errorTo(conn, "participantId required")
	}

	snap, reconnect, err := rt.registry.Join(roomID, pid, ev.DisplayName, conn, ev.Passcode)
	if err != nil {
		return errorTo(conn, err.Error())
	}
	rt.presence.Bind(conn, roomID, pid)

	out := []Delivery{{To: conn, Event: RoomJoined{Type: EvRoomJoined, Snapshot: snap}}}
	if reconnect {
		// A reload picked its old participant entry back up; the room
		// never saw it go, so nobody is told it came back.
		return out
	}

	joined := UserJoined{Type: EvUserJoined, DisplayName: ev.DisplayName, Participants: snap.Participants}
	notice := ChatReceived{Type: EvChatReceived, Message: domain.ChatMessage{
		Sender:    ev.DisplayName,
		Text:      ev.DisplayName + " joined the room",
		Timestamp: rt.now(),
		System:    true,
	}}
	for _, d := range rt.fanOutExcept(snap.Participants, conn) {
		out = append(out, Delivery{To: d, Event: joined}, Delivery{To: d, Event: notice})
	}
	return out
}

func (rt *Router) LeaveRoom(conn domain.ConnID, ev LeaveRoom) []Delivery {
	roomID, pid, ok := rt.presence.Lookup(conn)
	if !ok {
		return errorTo(conn, domain.ErrNotInRoom.Error())
	}
	if ev.ParticipantID != "" && domain.ParticipantID(ev.ParticipantID) != pid {
		return errorTo(conn, "participantId mismatch")
	}

	left, err := rt.registry.Leave(roomID, pid)
	if err != nil {
		return errorTo(conn, err.Error())
	}
	rt.presence.Drop(conn)
	rt.chat.Forget(pid)
	log.Info().Str("module", "app.router").Str("room", string(roomID)).Str("participant", string(pid)).Msg("explicit leave")

	remaining, err := rt.registry.Participants(roomID)
	if err != nil {
		// Room died with the leaver; nobody to tell.
		return nil
	}
	gone := UserLeft{Type: EvUserLeft, DisplayName: left.Name}
	notice := ChatReceived{Type: EvChatReceived, Message: domain.ChatMessage{
		Sender:    left.Name,
		Text:      left.Name + " left the room",
		Timestamp: rt.now(),
		System:    true,
	}}
	var out []Delivery
	for _, d := range rt.fanOutExcept(remaining, conn) {
		out = append(out, Delivery{To: d, Event: gone}, Delivery{To: d, Event: notice})
	}
	return out
}

func (rt *Router) Chat(conn domain.ConnID, ev ChatMessage) []Delivery {
	roomID, pid, ok := rt.presence.Lookup(conn)
	if !ok {
		return errorTo(conn, domain.ErrNotInRoom.Error())
	}
	if rt.chat != nil && !rt.chat.Allow(pid) {
		return errorTo(conn, "too many messages, slow down")
	}

	sender, err := rt.registry.Participant(roomID, pid)
	if err != nil {
		return errorTo(conn, err.Error())
	}
	msg := domain.ChatMessage{
		Sender:    sender.Name,
		Text:      ev.Text,
		Timestamp: rt.now(),
	}
	if err := rt.registry.AppendMessage(roomID, msg); err != nil {
		return errorTo(conn, err.Error())
	}

	participants, err := rt.registry.Participants(roomID)
	if err != nil {
		return errorTo(conn, err.Error())
	}
	// Everyone gets the message, sender included, so all clients show
	// the server-confirmed order and timestamp.
	received := ChatReceived{Type: EvChatReceived, Message: msg}
	var out []Delivery
	for _, p := range participants {
		if p.Connected() {
			out = append(out, Delivery{To: p.Conn, Event: received})
		}
	}
	return out
}

func (rt *Router) Code(conn domain.ConnID, ev CodeChange) []Delivery {
	roomID, _, ok := rt.presence.Lookup(conn)
	if !ok {
		return errorTo(conn, domain.ErrNotInRoom.Error())
	}
	if err := rt.registry.SetDocument(roomID, ev.Text); err != nil {
		return errorTo(conn, err.Error())
	}

	participants, err := rt.registry.Participants(roomID)
	if err != nil {
		return errorTo(conn, err.Error())
	}
	// The sender already has the authoritative local value.
	received := CodeReceived{Type: EvCodeReceived, Text: ev.Text}
	var out []Delivery
	for _, d := range rt.fanOutExcept(participants, conn) {
		out = append(out, Delivery{To: d, Event: received})
	}
	return out
}

// Language records the proposed tag as advisory metadata for
// late-joiners and forwards the proposal to everyone else. Each
// recipient resolves it locally; there is no server arbitration, and
// concurrent proposals race by design.
func (rt *Router) Language(conn domain.ConnID, ev LanguageChange) []Delivery {
	roomID, pid, ok := rt.presence.Lookup(conn)
	if !ok {
		return errorTo(conn, domain.ErrNotInRoom.Error())
	}
	proposer, err := rt.registry.Participant(roomID, pid)
	if err != nil {
		return errorTo(conn, err.Error())
	}
	if err := rt.registry.SetLanguage(roomID, ev.Language); err != nil {
		return errorTo(conn, err.Error())
	}

	participants, err := rt.registry.Participants(roomID)
	if err != nil {
		return errorTo(conn, err.Error())
	}
	proposed := LanguageProposed{Type: EvLanguageProposed, Language: ev.Language, Proposer: proposer.Name}
	var out []Delivery
	for _, d := range rt.fanOutExcept(participants, conn) {
		out = append(out, Delivery{To: d, Event: proposed})
	}
	return out
}

// Disconnect is the transport-level drop. Silent: the participant
// stays listed, no event reaches the room.
func (rt *Router) Disconnect(conn domain.ConnID) {
	rt.presence.Disconnect(conn)
}

func (rt *Router) fanOutExcept(participants []domain.Participant, except domain.ConnID) []domain.ConnID {
	out := make([]domain.ConnID, 0, len(participants))
	for _, p := range participants {
		if p.Connected() && p.Conn != except {
			out = append(out, p.Conn)
		}
	}
	return out
}
