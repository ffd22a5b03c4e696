package app

import (
	"fmt"

	"github.com/dkeye/runchat/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a connection whose write queue is full.
type Policy interface {
	OnBackPressure(id core.ConnectionID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.ConnectionID) BackpressureAction {
	return KickMember
}

// LenientPolicy drops the frame and keeps the connection.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(core.ConnectionID) BackpressureAction {
	return DropFrame
}

// NewPolicy maps a backpressure mode name to a Policy: "kick" or "drop".
func NewPolicy(mode string) (Policy, error) {
	switch mode {
	case "", "kick":
		return SimplePolicy{}, nil
	case "drop":
		return LenientPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure mode %q", mode)
	}
}
