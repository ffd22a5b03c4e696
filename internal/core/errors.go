package core

import (
	"errors"

	"github.com/dkeye/runchat/internal/domain"
)

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrRoomNotFound      = errors.New("room not found")
	ErrDuplicateName     = errors.New("a room with this name already exists")
	ErrInvalidRoomName   = errors.New("room name must not be empty")
	ErrNotInRoom         = errors.New("join a room before sending messages")
	ErrSnapshotNotFound  = errors.New("snapshot not found")

	// Re-exported so callers can match every validation failure from one place.
	ErrInvalidNickname = domain.ErrInvalidNickname
	ErrMessageTooLong  = domain.ErrMessageTooLong
)

// IsValidation reports whether err should be surfaced to the requesting client.
func IsValidation(err error) bool {
	return errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrInvalidNickname) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrInvalidRoomName) ||
		errors.Is(err, ErrNotInRoom) ||
		errors.Is(err, ErrMessageTooLong) ||
		errors.Is(err, ErrUnknownConnection)
}
