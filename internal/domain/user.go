// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MinNicknameLen    = 2
	MaxNicknameLen    = 30
	AnonymousNickname = "Anonymous"
)

var ErrInvalidNickname = errors.New("nickname must be between 2 and 30 characters")

type UserID string

// User is the profile a connection presents to rooms.
type User struct {
	ID        UserID `json:"userId,omitempty"`
	Nickname  string `json:"nickname"`
	Anonymous bool   `json:"anonymous,omitempty"`
}

// NormalizeNickname trims the nickname and checks its length in runes.
func NormalizeNickname(nickname string) (string, error) {
	n := strings.TrimSpace(nickname)
	l := utf8.RuneCountInString(n)
	if l < MinNicknameLen || l > MaxNicknameLen {
		return "", ErrInvalidNickname
	}
	return n, nil
}

func (u *User) SetNickname(nickname string) error {
	n, err := NormalizeNickname(nickname)
	if err != nil {
		return err
	}
	u.Nickname = n
	return nil
}
