package protocol

import (
	"time"

	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
)

const (
	TypeConnected      = "connected"
	TypeRoomJoined     = "room_joined"
	TypeHistory        = "history"
	TypeUserJoined     = "user_joined"
	TypeUserLeft       = "user_left"
	TypeRoomCreated    = "room_created"
	TypeRoomRemoved    = "room_removed"
	TypeRoomUpdate     = "room_update"
	TypeError          = "error"
	TypeStats          = "stats"
	TypeStatsUpdate    = "stats_update"
	TypeLeft           = "left"
	TypeProfileUpdated = "profile_updated"
	TypePong           = "pong"
)

type Connected struct {
	Type     string            `json:"type"`
	ClientID core.ConnectionID `json:"clientId"`
	Rooms    []core.RoomInfo   `json:"rooms"`
}

type RoomJoined struct {
	Type      string           `json:"type"`
	Room      core.RoomInfo    `json:"room"`
	Messages  []domain.Message `json:"messages"`
	UserCount int              `json:"userCount"`
}

type History struct {
	Type     string           `json:"type"`
	Room     domain.RoomID    `json:"room"`
	Messages []domain.Message `json:"messages"`
}

type ChatMessage struct {
	Type      string        `json:"type"`
	ID        string        `json:"id"`
	Room      domain.RoomID `json:"room"`
	Nickname  string        `json:"nickname"`
	Text      string        `json:"text"`
	Timestamp time.Time     `json:"timestamp"`
	UserID    domain.UserID `json:"userId,omitempty"`
}

// Presence is sent as user_joined or user_left.
type Presence struct {
	Type     string        `json:"type"`
	Room     domain.RoomID `json:"room"`
	Nickname string        `json:"nickname"`
	Count    int           `json:"count"`
}

// RoomEvent is sent as room_created or room_update.
type RoomEvent struct {
	Type string        `json:"type"`
	Room core.RoomInfo `json:"room"`
}

type RoomRemoved struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Stats is sent as stats or stats_update.
type Stats struct {
	Type          string                `json:"type"`
	OnlineUsers   int                   `json:"onlineUsers"`
	TotalRooms    int                   `json:"totalRooms"`
	TotalMessages int64                 `json:"totalMessages"`
	Rooms         map[domain.RoomID]int `json:"rooms,omitempty"`
}

type Left struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
}

type ProfileUpdated struct {
	Type      string        `json:"type"`
	UserID    domain.UserID `json:"userId,omitempty"`
	Nickname  string        `json:"nickname"`
	Anonymous bool          `json:"anonymous"`
}

type Pong struct {
	Type string `json:"type"`
}

func NewChatMessage(m domain.Message) ChatMessage {
	return ChatMessage{
		Type:      TypeMessage,
		ID:        m.ID,
		Room:      m.RoomID,
		Nickname:  m.Nickname,
		Text:      m.Text,
		Timestamp: m.Timestamp,
		UserID:    m.UserID,
	}
}

func NewError(msg string) Error {
	return Error{Type: TypeError, Message: msg}
}
