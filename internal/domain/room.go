package domain

import "time"

type (
	RoomID   string
	RoomName string
)

// MainRoom is the lobby clients fall back to when a join names no room.
const MainRoom RoomID = "main"

// Room is the static description of a chat room.
type Room struct {
	ID          RoomID    `json:"id"`
	Name        RoomName  `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Permanent   bool      `json:"permanent"`
	Private     bool      `json:"private,omitempty"`
	OwnerID     string    `json:"ownerId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
