package protocol_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/runchat/internal/domain"
	"github.com/dkeye/runchat/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		validate func(t *testing.T, req protocol.Request, err error)
	}{
		{
			name: "join",
			in:   `{"type":"join","room":"main","nickname":"kim","userId":"u1"}`,
			validate: func(t *testing.T, req protocol.Request, err error) {
				require.NoError(t, err)
				j, ok := req.(*protocol.Join)
				require.True(t, ok)
				assert.Equal(t, "main", j.Room)
				assert.Equal(t, "kim", j.Nickname)
				assert.Equal(t, "u1", j.UserID)
			},
		},
		{
			name: "message keeps text verbatim",
			in:   `{"type":"message","text":"  hello  ","nickname":"kim"}`,
			validate: func(t *testing.T, req protocol.Request, err error) {
				require.NoError(t, err)
				m := req.(*protocol.SendMessage)
				assert.Equal(t, "  hello  ", m.Text)
			},
		},
		{
			name: "create room",
			in:   `{"type":"create_room","name":"Sunday LSD","icon":"🏃","private":true}`,
			validate: func(t *testing.T, req protocol.Request, err error) {
				require.NoError(t, err)
				c := req.(*protocol.CreateRoom)
				assert.Equal(t, "Sunday LSD", c.Name)
				assert.True(t, c.Private)
				assert.Equal(t, protocol.TypeCreateRoom, c.Kind())
			},
		},
		{
			name: "create room without name",
			in:   `{"type":"create_room"}`,
			validate: func(t *testing.T, _ protocol.Request, err error) {
				var se *protocol.ShapeError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, protocol.TypeCreateRoom, se.Type)
				assert.Contains(t, se.Error(), "name is required")
			},
		},
		{
			name: "room name too long",
			in:   `{"type":"create_room","name":"` + strings.Repeat("n", 51) + `"}`,
			validate: func(t *testing.T, _ protocol.Request, err error) {
				var se *protocol.ShapeError
				require.ErrorAs(t, err, &se)
				assert.Contains(t, se.Reason, "at most 50")
			},
		},
		{
			name: "get room info requires room",
			in:   `{"type":"get_room_info"}`,
			validate: func(t *testing.T, _ protocol.Request, err error) {
				var se *protocol.ShapeError
				require.ErrorAs(t, err, &se)
			},
		},
		{
			name: "ping",
			in:   `{"type":"ping"}`,
			validate: func(t *testing.T, req protocol.Request, err error) {
				require.NoError(t, err)
				assert.Equal(t, protocol.TypePing, req.Kind())
			},
		},
		{
			name: "not json",
			in:   `hello`,
			validate: func(t *testing.T, _ protocol.Request, err error) {
				assert.ErrorIs(t, err, protocol.ErrMalformed)
			},
		},
		{
			name: "missing type",
			in:   `{"room":"main"}`,
			validate: func(t *testing.T, _ protocol.Request, err error) {
				assert.ErrorIs(t, err, protocol.ErrMalformed)
			},
		},
		{
			name: "unknown type",
			in:   `{"type":"dance"}`,
			validate: func(t *testing.T, _ protocol.Request, err error) {
				assert.ErrorIs(t, err, protocol.ErrUnknownType)
			},
		},
		{
			name: "wrong field type",
			in:   `{"type":"join","room":42}`,
			validate: func(t *testing.T, _ protocol.Request, err error) {
				assert.ErrorIs(t, err, protocol.ErrMalformed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := protocol.Decode([]byte(tt.in))
			tt.validate(t, req, err)
		})
	}
}

func TestEncodeChatMessage(t *testing.T) {
	ts := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	frame, err := protocol.Encode(protocol.NewChatMessage(domain.Message{
		ID:        "m1",
		RoomID:    "main",
		Nickname:  "kim",
		Text:      "hello",
		Timestamp: ts,
		UserID:    "u1",
	}))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(frame, &got))
	assert.Equal(t, "message", got["type"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "kim", got["nickname"])
	assert.Equal(t, "u1", got["userId"])
	assert.Equal(t, "main", got["room"])
}

func TestEncodeError(t *testing.T) {
	frame, err := protocol.Encode(protocol.NewError("boom"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","message":"boom"}`, string(frame))
}
