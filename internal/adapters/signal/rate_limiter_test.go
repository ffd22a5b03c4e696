package signal

import (
	"testing"
	"time"

	"github.com/dkeye/runchat/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(clk, 3, 10*time.Second)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a"))
		clk.Advance(time.Second)
	}
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "windows are per connection")

	// t=10: the attempt at t=0 is exactly one interval old.
	clk.Advance(7 * time.Second)
	assert.True(t, rl.Allow("a"), "oldest attempt left the window")
	assert.False(t, rl.Allow("a"))

	rl.Forget("a")
	assert.True(t, rl.Allow("a"))
}

func TestRateLimiterWindowBoundary(t *testing.T) {
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(clk, 1, 10*time.Second)

	assert.True(t, rl.Allow("a"))
	clk.Advance(10*time.Second - time.Nanosecond)
	assert.False(t, rl.Allow("a"), "attempt still inside the window")

	clk.Advance(time.Nanosecond)
	assert.True(t, rl.Allow("a"), "attempt exactly one interval old no longer counts")
}
