// Package clock lets timer-driven code run against wall time or a manual
// clock in tests.
package clock

import "time"

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop reports whether the call stopped the timer before it fired.
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
