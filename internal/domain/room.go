// Package domain contains entities without logic, just meta-data.
package domain

import (
	"strings"
	"time"
)

const (
	MaxRoomIDLen      = 36
	MaxDisplayNameLen = 36

	// HistoryLimit bounds a room's chat history; the oldest message is
	// evicted when a new one would exceed it.
	HistoryLimit = 100

	DefaultLanguage = "javascript"
)

type RoomID string

// NormalizeRoomID folds case so rooms differing only by case collapse
// into one.
func NormalizeRoomID(raw string) RoomID {
	return RoomID(strings.ToLower(strings.TrimSpace(raw)))
}

func ValidateRoomID(id RoomID) error {
	if len(id) == 0 {
		return ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return ErrRoomIDTooLong
	}
	return nil
}

// ChatMessage is immutable once appended to a room's history.
// System marks synthetic join/leave notices.
type ChatMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	System    bool      `json:"system,omitempty"`
}

type Room struct {
	ID           RoomID
	Passcode     string // empty means open
	Creator      ParticipantID
	Participants []Participant
	Messages     []ChatMessage
	Document     string
	Language     string
	CreatedAt    time.Time
}

// Snapshot is the read-only projection sent to a (re)joining client.
type Snapshot struct {
	RoomID       RoomID        `json:"roomId"`
	Participants []Participant `json:"participants"`
	Messages     []ChatMessage `json:"messages"`
	Document     string        `json:"document"`
	Language     string        `json:"language"`
}

type RoomInfo struct {
	ID          RoomID `json:"roomId"`
	MemberCount int    `json:"memberCount"`
	Protected   bool   `json:"protected"`
}
