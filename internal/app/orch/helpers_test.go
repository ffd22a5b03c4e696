package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/runchat/internal/clock"
	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/stretchr/testify/require"
)

var errQueueFull = errors.New("queue full")

type fakeConn struct {
	mu      sync.Mutex
	frames  []map[string]any
	full    bool
	closed  bool
	pingErr error
	pings   int
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.full {
		return errQueueFull
	}
	var m map[string]any
	if err := json.Unmarshal(f, &m); err != nil {
		return err
	}
	c.frames = append(c.frames, m)
	return nil
}

func (c *fakeConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	return c.pingErr
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ofType returns received frames with the given type.
func (c *fakeConn) ofType(typ string) []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]any
	for _, f := range c.frames {
		if f["type"] == typ {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

var epoch = time.Date(2024, 4, 6, 7, 0, 0, 0, time.UTC)

func newTestOrch(t *testing.T) (*Orchestrator, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(epoch)
	o := New(Config{
		RoomTTL:           30 * time.Minute,
		HistoryLimit:      50,
		HeartbeatInterval: 30 * time.Second,
		HeartbeatGrace:    10 * time.Second,
		Clock:             clk,
	})
	require.NoError(t, o.Bootstrap([]domain.Room{
		{ID: "main", Name: "Main Lounge"},
		{ID: "marathon", Name: "Marathon Talk"},
	}))
	return o, clk
}

func connect(o *Orchestrator, user string) (core.ConnectionID, *fakeConn) {
	c := &fakeConn{}
	id := o.Connect(domain.UserID(user), c)
	return id, c
}

// checkInvariants asserts membership symmetry, timer-iff-empty for
// ephemeral rooms, that no connection sits in a deleted room, and that
// every permanent room exists.
func checkInvariants(t *testing.T, o *Orchestrator, permanent ...domain.RoomID) {
	t.Helper()
	for _, r := range o.Rooms.All() {
		require.Equal(t, r.MemberCount(), o.Registry.InRoom(r.ID()), "membership of %s", r.ID())
		for _, m := range r.Members() {
			info, ok := o.Registry.Get(m)
			require.True(t, ok)
			require.Equal(t, r.ID(), info.Room)
		}
		if r.Permanent() {
			require.False(t, o.Scheduler.Armed(r.ID()), "permanent room %s must not have a timer", r.ID())
			continue
		}
		require.Equal(t, r.MemberCount() == 0, o.Scheduler.Armed(r.ID()), "timer state of %s", r.ID())
	}
	for _, p := range o.Registry.All() {
		info, ok := o.Registry.Get(p.ID)
		if !ok || info.Room == "" {
			continue
		}
		_, ok = o.Rooms.Get(info.Room)
		require.True(t, ok, "%s is a member of deleted room %s", p.ID, info.Room)
	}
	for _, id := range permanent {
		_, ok := o.Rooms.Get(id)
		require.True(t, ok, "permanent room %s missing", id)
	}
}
