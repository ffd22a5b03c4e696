package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dkeye/runchat/internal/clock"
	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/dkeye/runchat/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Supervisor removes connections on behalf of the heartbeat.
type Supervisor interface {
	Disconnect(id core.ConnectionID) bool
	HandleDropped(res core.PublishResult)
}

type Stats struct {
	OnlineUsers   int                   `json:"onlineUsers"`
	TotalRooms    int                   `json:"totalRooms"`
	TotalMessages int64                 `json:"totalMessages"`
	Rooms         map[domain.RoomID]int `json:"rooms"`
}

func (s Stats) Envelope(typ string) protocol.Stats {
	return protocol.Stats{
		Type:          typ,
		OnlineUsers:   s.OnlineUsers,
		TotalRooms:    s.TotalRooms,
		TotalMessages: s.TotalMessages,
		Rooms:         s.Rooms,
	}
}

// Presence projects registry state into stats and runs the liveness check.
type Presence struct {
	reg   *Registry
	rooms *RoomManager
	disp  *Dispatcher
	clk   clock.Clock
	sup   Supervisor

	interval time.Duration
	grace    time.Duration
	messages atomic.Int64
}

func NewPresence(reg *Registry, rooms *RoomManager, disp *Dispatcher, clk clock.Clock, sup Supervisor, interval, grace time.Duration) *Presence {
	return &Presence{
		reg:      reg,
		rooms:    rooms,
		disp:     disp,
		clk:      clk,
		sup:      sup,
		interval: interval,
		grace:    grace,
	}
}

func (p *Presence) RecordMessage() { p.messages.Add(1) }

func (p *Presence) Stats() Stats {
	rooms := p.rooms.All()
	st := Stats{
		OnlineUsers:   p.reg.Count(),
		TotalRooms:    len(rooms),
		TotalMessages: p.messages.Load(),
		Rooms:         make(map[domain.RoomID]int, len(rooms)),
	}
	for _, r := range rooms {
		st.Rooms[r.ID()] = r.MemberCount()
	}
	return st
}

// Tick evicts connections silent for longer than interval+grace, pings the
// rest and broadcasts stats_update.
func (p *Presence) Tick(now time.Time) Stats {
	cutoff := now.Add(-(p.interval + p.grace))
	for _, id := range p.reg.Stale(cutoff) {
		log.Info().Str("module", "app.presence").Str("cid", string(id)).Msg("heartbeat timeout")
		p.sup.Disconnect(id)
	}
	for _, peer := range p.reg.All() {
		if err := peer.Conn.Ping(); err != nil {
			log.Info().Str("module", "app.presence").Str("cid", string(peer.ID)).Err(err).Msg("ping failed")
			p.sup.Disconnect(peer.ID)
		}
	}

	st := p.Stats()
	p.sup.HandleDropped(p.disp.BroadcastGlobal(st.Envelope(protocol.TypeStatsUpdate)))
	return st
}

func (p *Presence) Run(ctx context.Context) error {
	if p.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(p.interval)
	defer t.Stop()
	log.Info().Str("module", "app.presence").Dur("interval", p.interval).Msg("heartbeat started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			st := p.Tick(p.clk.Now())
			log.Debug().Str("module", "app.presence").Int("online", st.OnlineUsers).Int("rooms", st.TotalRooms).Msg("heartbeat")
		}
	}
}
