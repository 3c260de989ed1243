package domain

type (
	// ParticipantID is supplied by the client and stays stable across
	// reconnects; it deduplicates rejoins after a page reload.
	ParticipantID string

	// ConnID identifies one live websocket. A new one is minted on
	// every connect, so it changes on every reconnect.
	ConnID string
)

// Participant is a logical user inside a room. Conn is empty while the
// participant is present but currently disconnected.
type Participant struct {
	ID   ParticipantID `json:"participantId"`
	Name string        `json:"displayName"`
	Conn ConnID        `json:"connectionId,omitempty"`
}

func (p Participant) Connected() bool { return p.Conn != "" }

func ValidateDisplayName(name string) error {
	if len(name) == 0 {
		return ErrDisplayNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return ErrDisplayNameTooLong
	}
	return nil
}
