package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/CodeRoom/internal/domain"
)

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry()

	snap, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("r1"), snap.RoomID)
	assert.Len(t, snap.Participants, 1)
	assert.Equal(t, "Alice", snap.Participants[0].Name)
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.Document)
	assert.Equal(t, domain.DefaultLanguage, snap.Language)
}

func TestRegistryCreateDuplicate(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)

	_, err = reg.Create("r1", "b", "Bob", "c2", "secret")
	assert.ErrorIs(t, err, domain.ErrRoomExists)

	// The losing create must not touch the existing room.
	snap, err := reg.Snapshot("r1")
	require.NoError(t, err)
	assert.Len(t, snap.Participants, 1)
	assert.Equal(t, domain.ParticipantID("a"), snap.Participants[0].ID)
}

func TestRegistryJoin(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)

	snap, reconnect, err := reg.Join("r1", "b", "Bob", "c2", "")
	require.NoError(t, err)
	assert.False(t, reconnect)
	assert.Len(t, snap.Participants, 2)
}

func TestRegistryJoinUnknownRoom(t *testing.T) {
	reg := NewRegistry()
	_, _, err := reg.Join("nope", "b", "Bob", "c2", "")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRegistryJoinPasscode(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("r1", "a", "Alice", "c1", "hunter2")
	require.NoError(t, err)

	_, _, err = reg.Join("r1", "b", "Bob", "c2", "wrong")
	assert.ErrorIs(t, err, domain.ErrBadPasscode)

	// No participant added on a failed join.
	parts, err := reg.Participants("r1")
	require.NoError(t, err)
	assert.Len(t, parts, 1)

	_, _, err = reg.Join("r1", "b", "Bob", "c2", "hunter2")
	assert.NoError(t, err)
}

func TestRegistryJoinReconnect(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)
	_, _, err = reg.Join("r1", "b", "Bob", "c2", "")
	require.NoError(t, err)

	// Same participant id, fresh connection: a reconnect, never a
	// duplicate. Participant count must not grow.
	snap, reconnect, err := reg.Join("r1", "b", "Bobby", "c3", "")
	require.NoError(t, err)
	assert.True(t, reconnect)
	assert.Len(t, snap.Participants, 2)

	p, err := reg.Participant("r1", "b")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnID("c3"), p.Conn)
	assert.Equal(t, "Bobby", p.Name)
}

func TestRegistryLeaveDeletesEmptyRoom(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)
	_, _, err = reg.Join("r1", "b", "Bob", "c2", "")
	require.NoError(t, err)

	left, err := reg.Leave("r1", "b")
	require.NoError(t, err)
	assert.Equal(t, "Bob", left.Name)
	assert.Equal(t, 1, reg.Count())

	_, err = reg.Leave("r1", "a")
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Count())

	_, err = reg.Snapshot("r1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRegistryJoinRacingFinalLeave(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)

	// A join resolves the room state first and takes the room lock
	// second. A final leave can delete the room in that window; the
	// join must then fail instead of reviving the orphaned state.
	st, ok := reg.get("r1")
	require.True(t, ok)

	_, err = reg.Leave("r1", "a")
	require.NoError(t, err)
	require.Equal(t, 0, reg.Count())

	_, _, err = st.join("b", "Bob", "c2", "")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Equal(t, 0, reg.Count())

	// The id is free for a fresh room afterwards.
	_, err = reg.Create("r1", "b", "Bob", "c2", "")
	assert.NoError(t, err)
}

func TestRegistryLeaveNonMember(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)

	_, err = reg.Leave("r1", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotInRoom)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistryDetachConnection(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)
	_, _, err = reg.Join("r1", "b", "Bob", "c2", "")
	require.NoError(t, err)

	reg.DetachConnection("c2")

	// Detach nulls the connection id but never removes anyone.
	parts, err := reg.Participants("r1")
	require.NoError(t, err)
	assert.Len(t, parts, 2)

	p, err := reg.Participant("r1", "b")
	require.NoError(t, err)
	assert.False(t, p.Connected())

	// Unknown connection ids are a no-op.
	reg.DetachConnection("never-seen")
	parts, err = reg.Participants("r1")
	require.NoError(t, err)
	assert.Len(t, parts, 2)
}

func TestRegistryHistoryBound(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)

	for i := 0; i < domain.HistoryLimit+1; i++ {
		err := reg.AppendMessage("r1", domain.ChatMessage{Sender: "Alice", Text: fmt.Sprintf("msg-%d", i)})
		require.NoError(t, err)
	}

	snap, err := reg.Snapshot("r1")
	require.NoError(t, err)
	require.Len(t, snap.Messages, domain.HistoryLimit)
	// Exactly the oldest got evicted.
	assert.Equal(t, "msg-1", snap.Messages[0].Text)
	assert.Equal(t, fmt.Sprintf("msg-%d", domain.HistoryLimit), snap.Messages[domain.HistoryLimit-1].Text)
}

func TestRegistryDocumentRoundTrip(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)

	require.NoError(t, reg.SetDocument("r1", "x = 1"))
	snap, err := reg.Snapshot("r1")
	require.NoError(t, err)
	assert.Equal(t, "x = 1", snap.Document)

	require.NoError(t, reg.SetLanguage("r1", "python"))
	snap, err = reg.Snapshot("r1")
	require.NoError(t, err)
	assert.Equal(t, "python", snap.Language)
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)

	snap, err := reg.Snapshot("r1")
	require.NoError(t, err)
	snap.Participants[0].Name = "Mallory"

	p, err := reg.Participant("r1", "a")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
}

func TestRegistryValidation(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Create("", "a", "Alice", "c1", "")
	assert.ErrorIs(t, err, domain.ErrRoomIDEmpty)

	_, err = reg.Create("r1", "a", "", "c1", "")
	assert.ErrorIs(t, err, domain.ErrDisplayNameEmpty)
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)
	_, err = reg.Create("r2", "b", "Bob", "c2", "secret")
	require.NoError(t, err)

	infos := reg.List()
	require.Len(t, infos, 2)
	byID := map[domain.RoomID]domain.RoomInfo{}
	for _, info := range infos {
		byID[info.ID] = info
	}
	assert.Equal(t, 1, byID["r1"].MemberCount)
	assert.False(t, byID["r1"].Protected)
	assert.True(t, byID["r2"].Protected)
}
