package domain_test

import (
	"strings"
	"testing"

	"github.com/dkeye/runchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNickname(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "ok", in: "runner", want: "runner"},
		{name: "trimmed", in: "  kim  ", want: "kim"},
		{name: "too short", in: "a", wantErr: true},
		{name: "whitespace only", in: "     ", wantErr: true},
		{name: "max length", in: strings.Repeat("a", 30), want: strings.Repeat("a", 30)},
		{name: "too long", in: strings.Repeat("a", 31), wantErr: true},
		{name: "multibyte counted by rune", in: "달리기왕", want: "달리기왕"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.NormalizeNickname(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidNickname)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserSetNickname(t *testing.T) {
	u := &domain.User{ID: "u1", Nickname: "old"}
	require.ErrorIs(t, u.SetNickname("x"), domain.ErrInvalidNickname)
	assert.Equal(t, "old", u.Nickname)

	require.NoError(t, u.SetNickname(" new name "))
	assert.Equal(t, "new name", u.Nickname)
}

func TestNormalizeText(t *testing.T) {
	got, err := domain.NormalizeText("  hello ")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	got, err = domain.NormalizeText(" \t\n ")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = domain.NormalizeText(strings.Repeat("x", 500))
	assert.NoError(t, err)

	_, err = domain.NormalizeText(strings.Repeat("x", 501))
	assert.ErrorIs(t, err, domain.ErrMessageTooLong)
	assert.Contains(t, domain.ErrMessageTooLong.Error(), "500")
}
