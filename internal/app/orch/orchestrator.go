// Package orch applies every chat state transition under one lock so that
// room membership, connection state and expiry timers always agree.
package orch

import (
	"sync"
	"time"

	"github.com/dkeye/runchat/internal/app"
	"github.com/dkeye/runchat/internal/clock"
	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/dkeye/runchat/internal/protocol"
	"github.com/rs/zerolog/log"
)

const DefaultRoomTTL = 30 * time.Minute

type Config struct {
	RoomTTL           time.Duration
	HistoryLimit      int
	HeartbeatInterval time.Duration
	HeartbeatGrace    time.Duration
	Clock             clock.Clock
	Policy            app.Policy
}

// Orchestrator owns the registries. Broadcasts are enqueued while mu is
// held, so members of a room see events in transition order. Dropped
// connections are handled only after mu is released.
type Orchestrator struct {
	mu sync.Mutex

	Registry   *app.Registry
	Rooms      *app.RoomManager
	Scheduler  *app.Scheduler
	Dispatcher *app.Dispatcher
	Presence   *app.Presence
	Policy     app.Policy

	clk clock.Clock
	ttl time.Duration
}

func New(cfg Config) *Orchestrator {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Policy == nil {
		cfg.Policy = app.SimplePolicy{}
	}
	if cfg.RoomTTL <= 0 {
		cfg.RoomTTL = DefaultRoomTTL
	}

	reg := app.NewRegistry()
	rooms := app.NewRoomManager(cfg.HistoryLimit)
	o := &Orchestrator{
		Registry:   reg,
		Rooms:      rooms,
		Scheduler:  app.NewScheduler(cfg.Clock),
		Dispatcher: app.NewDispatcher(reg, rooms),
		Policy:     cfg.Policy,
		clk:        cfg.Clock,
		ttl:        cfg.RoomTTL,
	}
	o.Presence = app.NewPresence(reg, rooms, o.Dispatcher, cfg.Clock, o, cfg.HeartbeatInterval, cfg.HeartbeatGrace)
	return o
}

// Connect registers conn and greets it with the public room list.
func (o *Orchestrator) Connect(userID domain.UserID, conn core.SignalConnection) core.ConnectionID {
	o.mu.Lock()
	id := o.Registry.Register(userID, conn, o.clk.Now())
	res := o.Dispatcher.SendTo(id, protocol.Connected{
		Type:     protocol.TypeConnected,
		ClientID: id,
		Rooms:    o.Rooms.List(false),
	})
	res.Merge(o.Dispatcher.SendTo(id, o.Presence.Stats().Envelope(protocol.TypeStats)))
	o.mu.Unlock()

	o.HandleDropped(res)
	return id
}

// Disconnect leaves the current room, forgets the connection and closes
// its transport. Repeated calls report false.
func (o *Orchestrator) Disconnect(id core.ConnectionID) bool {
	o.mu.Lock()
	info, ok := o.Registry.Get(id)
	if !ok {
		o.mu.Unlock()
		return false
	}
	conn, _ := o.Registry.Sender(id)
	var res core.PublishResult
	if info.Room != "" {
		res = o.leaveLocked(id, info.Room, info.User.Nickname)
	}
	o.Registry.Remove(id)
	o.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	log.Info().Str("module", "orch").Str("cid", string(id)).Msg("disconnected")
	o.HandleDropped(res)
	return true
}

// Touch records inbound activity for the heartbeat.
func (o *Orchestrator) Touch(id core.ConnectionID) bool {
	return o.Registry.Touch(id, o.clk.Now())
}

func (o *Orchestrator) UpdateProfile(id core.ConnectionID, userID domain.UserID, nickname string, anonymous bool) error {
	o.mu.Lock()
	u, err := o.Registry.SetProfile(id, nickname, userID, anonymous)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	res := o.Dispatcher.SendTo(id, protocol.ProfileUpdated{
		Type:      protocol.TypeProfileUpdated,
		UserID:    u.ID,
		Nickname:  u.Nickname,
		Anonymous: u.Anonymous,
	})
	o.mu.Unlock()

	o.HandleDropped(res)
	return nil
}

// Reply sends v to one connection.
func (o *Orchestrator) Reply(id core.ConnectionID, v any) {
	o.HandleDropped(o.Dispatcher.SendTo(id, v))
}

func (o *Orchestrator) Stats() app.Stats {
	return o.Presence.Stats()
}

// HandleDropped applies the backpressure policy to connections that
// refused a frame. Must be called without mu held.
func (o *Orchestrator) HandleDropped(res core.PublishResult) {
	for _, id := range res.Dropped {
		switch o.Policy.OnBackPressure(id) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("cid", string(id)).Msg("kicking slow consumer")
			o.Disconnect(id)
		case app.DropFrame, app.NoAction:
		}
	}
}

// Shutdown closes every connection and stops pending expiry timers.
func (o *Orchestrator) Shutdown() {
	for _, p := range o.Registry.All() {
		o.Disconnect(p.ID)
	}
	o.Scheduler.Stop()
}
