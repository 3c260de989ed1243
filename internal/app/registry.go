package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/domain"
)

// Registry is the authoritative in-memory store of room state. All
// mutations of a single room are serialized by that room's mutex;
// operations on different rooms proceed in parallel. Callers never see
// the shared map directly.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
	now   func() time.Time
}

// roomState pairs a room with its mutex. deleted is set, under mu,
// when Leave drops the room from the registry map. An operation that
// resolved the pointer just before that happened observes the flag
// after taking mu and fails with domain.ErrRoomNotFound instead of
// mutating an orphan.
type roomState struct {
	mu      sync.Mutex
	room    *domain.Room
	deleted bool
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[domain.RoomID]*roomState),
		now:   time.Now,
	}
}

// Create fails with domain.ErrRoomExists if the id is taken. The
// creator becomes the first participant.
func (r *Registry) Create(id domain.RoomID, pid domain.ParticipantID, name string, conn domain.ConnID, passcode string) (domain.Snapshot, error) {
	if err := domain.ValidateRoomID(id); err != nil {
		return domain.Snapshot{}, err
	}
	if err := domain.ValidateDisplayName(name); err != nil {
		return domain.Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; ok {
		return domain.Snapshot{}, domain.ErrRoomExists
	}
	room := &domain.Room{
		ID:       id,
		Passcode: passcode,
		Creator:  pid,
		Participants: []domain.Participant{
			{ID: pid, Name: name, Conn: conn},
		},
		Language:  domain.DefaultLanguage,
		CreatedAt: r.now(),
	}
	r.rooms[id] = &roomState{room: room}
	log.Info().Str("module", "app.registry").Str("room", string(id)).Str("participant", string(pid)).Msg("room created")
	return snapshotOf(room), nil
}

// Join adds a participant. When the participant id is already present
// it instead updates the existing entry's connection id and display
// name in place; that is the reconnect path, where a page reload
// produces a new ConnID but the same ParticipantID. The returned bool
// reports whether this was a reconnect.
func (r *Registry) Join(id domain.RoomID, pid domain.ParticipantID, name string, conn domain.ConnID, passcode string) (domain.Snapshot, bool, error) {
	if err := domain.ValidateDisplayName(name); err != nil {
		return domain.Snapshot{}, false, err
	}

	st, ok := r.get(id)
	if !ok {
		return domain.Snapshot{}, false, domain.ErrRoomNotFound
	}
	return st.join(pid, name, conn, passcode)
}

func (st *roomState) join(pid domain.ParticipantID, name string, conn domain.ConnID, passcode string) (domain.Snapshot, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted {
		return domain.Snapshot{}, false, domain.ErrRoomNotFound
	}
	room := st.room
	if room.Passcode != "" && room.Passcode != passcode {
		return domain.Snapshot{}, false, domain.ErrBadPasscode
	}
	for i := range room.Participants {
		if room.Participants[i].ID == pid {
			room.Participants[i].Conn = conn
			room.Participants[i].Name = name
			log.Info().Str("module", "app.registry").Str("room", string(room.ID)).Str("participant", string(pid)).Msg("participant reconnected")
			return snapshotOf(room), true, nil
		}
	}
	room.Participants = append(room.Participants, domain.Participant{ID: pid, Name: name, Conn: conn})
	log.Info().Str("module", "app.registry").Str("room", string(room.ID)).Str("participant", string(pid)).Msg("participant joined")
	return snapshotOf(room), false, nil
}

// Leave removes the participant; the room is deleted the moment its
// participant list becomes empty. Returns the removed participant.
func (r *Registry) Leave(id domain.RoomID, pid domain.ParticipantID) (domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[id]
	if !ok {
		return domain.Participant{}, domain.ErrRoomNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	room := st.room
	for i, p := range room.Participants {
		if p.ID != pid {
			continue
		}
		room.Participants = append(room.Participants[:i], room.Participants[i+1:]...)
		if len(room.Participants) == 0 {
			st.deleted = true
			delete(r.rooms, id)
			log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room deleted, last participant left")
		}
		return p, nil
	}
	return domain.Participant{}, domain.ErrNotInRoom
}

// DetachConnection nulls the connection id of whichever participant
// holds it, without removing the participant or the room. This is the
// disconnect-vs-leave distinction: a transient drop must survive a
// reconnect with the same participant id.
func (r *Registry) DetachConnection(conn domain.ConnID) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, st := range r.rooms {
		st.mu.Lock()
		for i := range st.room.Participants {
			if st.room.Participants[i].Conn == conn {
				st.room.Participants[i].Conn = ""
				st.mu.Unlock()
				log.Info().Str("module", "app.registry").Str("room", string(id)).Str("conn", string(conn)).Msg("connection detached")
				return
			}
		}
		st.mu.Unlock()
	}
}

// AppendMessage appends to the room's history, evicting the oldest
// entry beyond domain.HistoryLimit.
func (r *Registry) AppendMessage(id domain.RoomID, msg domain.ChatMessage) error {
	st, ok := r.get(id)
	if !ok {
		return domain.ErrRoomNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted {
		return domain.ErrRoomNotFound
	}
	st.room.Messages = append(st.room.Messages, msg)
	if len(st.room.Messages) > domain.HistoryLimit {
		st.room.Messages = st.room.Messages[1:]
	}
	return nil
}

func (r *Registry) SetDocument(id domain.RoomID, text string) error {
	st, ok := r.get(id)
	if !ok {
		return domain.ErrRoomNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted {
		return domain.ErrRoomNotFound
	}
	st.room.Document = text
	return nil
}

func (r *Registry) SetLanguage(id domain.RoomID, language string) error {
	st, ok := r.get(id)
	if !ok {
		return domain.ErrRoomNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted {
		return domain.ErrRoomNotFound
	}
	st.room.Language = language
	return nil
}

// Snapshot returns the read-only projection for a (re)joining client.
func (r *Registry) Snapshot(id domain.RoomID) (domain.Snapshot, error) {
	st, ok := r.get(id)
	if !ok {
		return domain.Snapshot{}, domain.ErrRoomNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted {
		return domain.Snapshot{}, domain.ErrRoomNotFound
	}
	return snapshotOf(st.room), nil
}

// Participants returns a copy of the room's participant list.
func (r *Registry) Participants(id domain.RoomID) ([]domain.Participant, error) {
	st, ok := r.get(id)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted {
		return nil, domain.ErrRoomNotFound
	}
	out := make([]domain.Participant, len(st.room.Participants))
	copy(out, st.room.Participants)
	return out, nil
}

// Participant looks up a single participant by its stable id.
func (r *Registry) Participant(id domain.RoomID, pid domain.ParticipantID) (domain.Participant, error) {
	st, ok := r.get(id)
	if !ok {
		return domain.Participant{}, domain.ErrRoomNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted {
		return domain.Participant{}, domain.ErrRoomNotFound
	}
	for _, p := range st.room.Participants {
		if p.ID == pid {
			return p, nil
		}
	}
	return domain.Participant{}, domain.ErrNotInRoom
}

// List is the REST projection of all open rooms.
func (r *Registry) List() []domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoomInfo, 0, len(r.rooms))
	for id, st := range r.rooms {
		st.mu.Lock()
		out = append(out, domain.RoomInfo{
			ID:          id,
			MemberCount: len(st.room.Participants),
			Protected:   st.room.Passcode != "",
		})
		st.mu.Unlock()
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) get(id domain.RoomID) (*roomState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.rooms[id]
	return st, ok
}

func snapshotOf(room *domain.Room) domain.Snapshot {
	snap := domain.Snapshot{
		RoomID:       room.ID,
		Participants: make([]domain.Participant, len(room.Participants)),
		Messages:     make([]domain.ChatMessage, len(room.Messages)),
		Document:     room.Document,
		Language:     room.Language,
	}
	copy(snap.Participants, room.Participants)
	copy(snap.Messages, room.Messages)
	return snap
}
