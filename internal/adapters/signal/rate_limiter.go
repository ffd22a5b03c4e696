package signal

import (
	"errors"
	"sync"
	"time"

	"github.com/dkeye/runchat/internal/clock"
	"github.com/dkeye/runchat/internal/core"
)

var ErrRateLimited = errors.New("too many requests, slow down")

// RateLimiter is a sliding-window limiter keyed by connection.
type RateLimiter struct {
	clk      clock.Clock
	mu       sync.Mutex
	history  map[core.ConnectionID][]time.Time
	limit    int
	interval time.Duration
}

func NewRateLimiter(clk clock.Clock, limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		clk:      clk,
		history:  make(map[core.ConnectionID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *RateLimiter) Allow(id core.ConnectionID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clk.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[id]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history[id] = fresh
		return false
	}
	rl.history[id] = append(fresh, now)
	return true
}

// Forget drops the window of a closed connection.
func (rl *RateLimiter) Forget(id core.ConnectionID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, id)
}
