// Package protocol decodes client requests and encodes server envelopes.
// Every frame is a JSON object tagged by its "type" field.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dkeye/runchat/internal/core"
)

const (
	TypeJoin          = "join"
	TypeLeave         = "leave"
	TypeMessage       = "message"
	TypeCreateRoom    = "create_room"
	TypeProfileUpdate = "profile_update"
	TypeGetRoomInfo   = "get_room_info"
	TypePing          = "ping"
)

var (
	ErrMalformed   = errors.New("malformed envelope")
	ErrUnknownType = errors.New("unknown message type")
)

// ShapeError is a known request whose fields failed validation.
// Its message is safe to show to the client.
type ShapeError struct {
	Type   string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid %s request: %s", e.Type, e.Reason)
}

// Request is one decoded client command.
type Request interface {
	Kind() string
}

type Join struct {
	Room     string `json:"room" validate:"omitempty,max=64"`
	Nickname string `json:"nickname"`
	UserID   string `json:"userId" validate:"omitempty,max=64"`
}

type Leave struct {
	Room string `json:"room" validate:"omitempty,max=64"`
}

// SendMessage carries text verbatim; length and emptiness are checked by the engine.
type SendMessage struct {
	Text     string `json:"text"`
	Nickname string `json:"nickname"`
}

type CreateRoom struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=200"`
	Icon        string `json:"icon" validate:"max=16"`
	Private     bool   `json:"private"`
}

type ProfileUpdate struct {
	UserID    string `json:"userId" validate:"omitempty,max=64"`
	Nickname  string `json:"nickname"`
	Anonymous bool   `json:"anonymous"`
}

type GetRoomInfo struct {
	Room string `json:"room" validate:"required,max=64"`
}

type Ping struct{}

func (*Join) Kind() string          { return TypeJoin }
func (*Leave) Kind() string         { return TypeLeave }
func (*SendMessage) Kind() string   { return TypeMessage }
func (*CreateRoom) Kind() string    { return TypeCreateRoom }
func (*ProfileUpdate) Kind() string { return TypeProfileUpdate }
func (*GetRoomInfo) Kind() string   { return TypeGetRoomInfo }
func (*Ping) Kind() string          { return TypePing }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode parses one client frame into its request type.
func Decode(data []byte) (Request, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var req Request
	switch env.Type {
	case TypeJoin:
		req = &Join{}
	case TypeLeave:
		req = &Leave{}
	case TypeMessage:
		req = &SendMessage{}
	case TypeCreateRoom:
		req = &CreateRoom{}
	case TypeProfileUpdate:
		req = &ProfileUpdate{}
	case TypeGetRoomInfo:
		req = &GetRoomInfo{}
	case TypePing:
		return &Ping{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	if err := validate.Struct(req); err != nil {
		return nil, &ShapeError{Type: env.Type, Reason: describe(err)}
	}
	return req, nil
}

func describe(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err.Error()
	}
	fe := ves[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// Encode marshals a server envelope into a frame.
func Encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return core.Frame(b), nil
}
