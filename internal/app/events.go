package app

import (
	"github.com/dkeye/CodeRoom/internal/domain"
)

// Wire event names. Inbound types are what clients send; outbound
// types are what the router and relay hand back for delivery.
const (
	EvCreateRoom      = "create-room"
	EvJoinRoom        = "join-room"
	EvLeaveRoom       = "leave-room"
	EvChatMessage     = "chat-message"
	EvCodeChange      = "code-change"
	EvLanguageChange  = "language-change"
	EvSignalOffer     = "signal-offer"
	EvSignalAnswer    = "signal-answer"
	EvSignalCandidate = "signal-candidate"

	EvRoomCreated      = "room-created"
	EvRoomJoined       = "room-joined"
	EvUserJoined       = "user-joined"
	EvUserLeft         = "user-left"
	EvChatReceived     = "chat-received"
	EvCodeReceived     = "code-received"
	EvLanguageProposed = "language-proposed"
	EvError            = "error"
)

// Inbound payloads.

type CreateRoom struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Passcode      string `json:"passcode,omitempty"`
}

type JoinRoom struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Passcode      string `json:"passcode,omitempty"`
}

type LeaveRoom struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
}

type ChatMessage struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type CodeChange struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type LanguageChange struct {
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
}

// Outbound payloads. Each carries its own wire type so the adapter
// marshals it as-is.

type RoomCreated struct {
	Type     string          `json:"type"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

type RoomJoined struct {
	Type     string          `json:"type"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

type UserJoined struct {
	Type         string               `json:"type"`
	DisplayName  string               `json:"displayName"`
	Participants []domain.Participant `json:"participants"`
}

type UserLeft struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
}

type ChatReceived struct {
	Type    string             `json:"type"`
	Message domain.ChatMessage `json:"message"`
}

type CodeReceived struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type LanguageProposed struct {
	Type     string `json:"type"`
	Language string `json:"language"`
	Proposer string `json:"proposer"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Delivery pairs one outbound event with the connection it goes to.
// Routing is a pure function over registry state; the transport layer
// only executes the list.
type Delivery struct {
	To    domain.ConnID
	Event any
}

func errorTo(conn domain.ConnID, msg string) []Delivery {
	return []Delivery{{To: conn, Event: ErrorEvent{Type: EvError, Message: msg}}}
}
