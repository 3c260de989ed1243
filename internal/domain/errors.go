package domain

import "errors"

var (
	ErrRoomExists      = errors.New("room already exists")
	ErrRoomNotFound    = errors.New("room not found")
	ErrBadPasscode     = errors.New("invalid passcode")
	ErrNotInRoom       = errors.New("not in a room")
	ErrPeerUnreachable = errors.New("signaling target unreachable")

	ErrRoomIDEmpty        = errors.New("room id empty")
	ErrRoomIDTooLong      = errors.New("room id too long")
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
)
