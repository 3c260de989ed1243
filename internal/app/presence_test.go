package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/CodeRoom/internal/domain"
)

func TestPresenceBindLookup(t *testing.T) {
	pres := NewPresence(NewRegistry())

	_, _, ok := pres.Lookup("c1")
	assert.False(t, ok)

	pres.Bind("c1", "r1", "a")
	room, pid, ok := pres.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("r1"), room)
	assert.Equal(t, domain.ParticipantID("a"), pid)
}

func TestPresenceDrop(t *testing.T) {
	pres := NewPresence(NewRegistry())
	pres.Bind("c1", "r1", "a")

	pres.Drop("c1")
	_, _, ok := pres.Lookup("c1")
	assert.False(t, ok)
}

func TestPresenceDisconnectDetaches(t *testing.T) {
	reg := NewRegistry()
	pres := NewPresence(reg)

	_, err := reg.Create("r1", "a", "Alice", "c1", "")
	require.NoError(t, err)
	pres.Bind("c1", "r1", "a")

	pres.Disconnect("c1")
	_, _, ok := pres.Lookup("c1")
	assert.False(t, ok)

	// The participant survives; only the connection id is nulled.
	p, err := reg.Participant("r1", "a")
	require.NoError(t, err)
	assert.False(t, p.Connected())
	assert.Equal(t, 1, reg.Count())
}

func TestPresenceDisconnectUnbound(t *testing.T) {
	pres := NewPresence(NewRegistry())
	// A connection that never joined a room disconnects silently.
	pres.Disconnect("c1")
	_, _, ok := pres.Lookup("c1")
	assert.False(t, ok)
}
