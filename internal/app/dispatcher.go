package app

import (
	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/dkeye/runchat/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Dispatcher encodes envelopes once and enqueues them on each target
// connection without blocking. Connections that refuse a frame are
// reported in PublishResult.Dropped.
type Dispatcher struct {
	reg   *Registry
	rooms *RoomManager
}

func NewDispatcher(reg *Registry, rooms *RoomManager) *Dispatcher {
	return &Dispatcher{reg: reg, rooms: rooms}
}

func (d *Dispatcher) SendTo(id core.ConnectionID, v any) core.PublishResult {
	frame, ok := encode(v)
	if !ok {
		return core.PublishResult{}
	}
	return d.deliver(frame, []core.ConnectionID{id}, "")
}

// BroadcastToRoom sends v to every current member of room except exclude.
func (d *Dispatcher) BroadcastToRoom(room domain.RoomID, v any, exclude core.ConnectionID) core.PublishResult {
	r, ok := d.rooms.Get(room)
	if !ok {
		return core.PublishResult{}
	}
	frame, ok := encode(v)
	if !ok {
		return core.PublishResult{}
	}
	return d.deliver(frame, r.Members(), exclude)
}

func (d *Dispatcher) BroadcastGlobal(v any) core.PublishResult {
	frame, ok := encode(v)
	if !ok {
		return core.PublishResult{}
	}
	var res core.PublishResult
	for _, p := range d.reg.All() {
		res.Merge(push(p.ID, p.Conn, frame))
	}
	return res
}

func (d *Dispatcher) deliver(frame core.Frame, ids []core.ConnectionID, exclude core.ConnectionID) core.PublishResult {
	var res core.PublishResult
	for _, id := range ids {
		if id == exclude {
			continue
		}
		conn, ok := d.reg.Sender(id)
		if !ok {
			continue
		}
		res.Merge(push(id, conn, frame))
	}
	return res
}

func push(id core.ConnectionID, conn core.SignalConnection, frame core.Frame) core.PublishResult {
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Str("module", "app.dispatcher").Str("cid", string(id)).Err(err).Msg("send failed")
		return core.PublishResult{Dropped: []core.ConnectionID{id}}
	}
	return core.PublishResult{SendTo: 1}
}

func encode(v any) (core.Frame, bool) {
	frame, err := protocol.Encode(v)
	if err != nil {
		log.Error().Str("module", "app.dispatcher").Err(err).Msg("encode failed")
		return nil, false
	}
	return frame, true
}
