package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxMessageLen = 500

var ErrMessageTooLong = errors.New("message must not exceed 500 characters")

// Message is an immutable chat entry.
type Message struct {
	ID        string    `json:"id"`
	RoomID    RoomID    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	UserID    UserID    `json:"userId,omitempty"`
	Nickname  string    `json:"nickname"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NormalizeText trims text. An empty result means the message should be dropped.
func NormalizeText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if utf8.RuneCountInString(t) > MaxMessageLen {
		return "", ErrMessageTooLong
	}
	return t, nil
}
