package orch

import (
	"fmt"
	"strings"

	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/dkeye/runchat/internal/protocol"
	"github.com/rs/zerolog/log"
)

// RoomSpec describes a room requested by a client.
type RoomSpec struct {
	Name        string
	Description string
	Icon        string
	Private     bool
}

// Bootstrap registers permanent rooms. It runs before any connection exists.
func (o *Orchestrator) Bootstrap(rooms []domain.Room) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.clk.Now()
	for _, meta := range rooms {
		meta.Permanent = true
		if meta.CreatedAt.IsZero() {
			meta.CreatedAt = now
		}
		if _, err := o.Rooms.Create(meta); err != nil {
			return fmt.Errorf("bootstrap room %q: %w", meta.ID, err)
		}
		log.Info().Str("module", "orch").Str("room", string(meta.ID)).Msg("permanent room ready")
	}
	return nil
}

// CreateRoom adds an empty ephemeral room owned by id and arms its expiry.
// Private rooms are announced to the owner only.
func (o *Orchestrator) CreateRoom(id core.ConnectionID, req RoomSpec) (core.RoomInfo, error) {
	o.mu.Lock()
	if _, ok := o.Registry.Get(id); !ok {
		o.mu.Unlock()
		return core.RoomInfo{}, core.ErrUnknownConnection
	}
	room, err := o.Rooms.Create(domain.Room{
		Name:        domain.RoomName(req.Name),
		Description: strings.TrimSpace(req.Description),
		Icon:        req.Icon,
		Private:     req.Private,
		OwnerID:     string(id),
		CreatedAt:   o.clk.Now(),
	})
	if err != nil {
		o.mu.Unlock()
		return core.RoomInfo{}, err
	}
	o.armLocked(room.ID())

	info := room.Info()
	ev := protocol.RoomEvent{Type: protocol.TypeRoomCreated, Room: info}
	var res core.PublishResult
	if req.Private {
		res = o.Dispatcher.SendTo(id, ev)
	} else {
		res = o.Dispatcher.BroadcastGlobal(ev)
	}
	o.mu.Unlock()

	log.Info().Str("module", "orch").Str("cid", string(id)).Str("room", string(info.ID)).Msg("room created")
	o.HandleDropped(res)
	return info, nil
}

// JoinRoom moves id into roomID. An empty roomID means the main lobby and
// an empty nickname falls back to the connection's profile.
func (o *Orchestrator) JoinRoom(id core.ConnectionID, roomID domain.RoomID, nickname string, userID domain.UserID) error {
	o.mu.Lock()
	res, err := o.joinLocked(id, roomID, nickname, userID)
	o.mu.Unlock()

	o.HandleDropped(res)
	return err
}

func (o *Orchestrator) joinLocked(id core.ConnectionID, roomID domain.RoomID, nickname string, userID domain.UserID) (core.PublishResult, error) {
	var res core.PublishResult
	info, ok := o.Registry.Get(id)
	if !ok {
		return res, core.ErrUnknownConnection
	}
	if roomID == "" {
		roomID = domain.MainRoom
	}
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return res, core.ErrRoomNotFound
	}
	if strings.TrimSpace(nickname) == "" {
		nickname = info.User.Nickname
	}
	nick, err := domain.NormalizeNickname(nickname)
	if err != nil {
		return res, err
	}
	anonymous := info.User.Anonymous && nick == domain.AnonymousNickname
	if _, err := o.Registry.SetProfile(id, nick, userID, anonymous); err != nil {
		return res, err
	}

	if info.Room == roomID && room.HasMember(id) {
		return o.snapshotLocked(id, room), nil
	}
	if info.Room != "" {
		res.Merge(o.leaveLocked(id, info.Room, info.User.Nickname))
	}

	room.AddMember(id)
	o.Registry.SetRoom(id, roomID)
	room.Touch(o.clk.Now())
	o.Scheduler.Cancel(roomID)

	res.Merge(o.snapshotLocked(id, room))
	res.Merge(o.Dispatcher.BroadcastToRoom(roomID, protocol.Presence{
		Type:     protocol.TypeUserJoined,
		Room:     roomID,
		Nickname: nick,
		Count:    room.MemberCount(),
	}, id))
	log.Info().Str("module", "orch").Str("cid", string(id)).Str("room", string(roomID)).Msg("joined room")
	return res, nil
}

func (o *Orchestrator) snapshotLocked(id core.ConnectionID, room *core.Room) core.PublishResult {
	history := room.History()
	res := o.Dispatcher.SendTo(id, protocol.RoomJoined{
		Type:      protocol.TypeRoomJoined,
		Room:      room.Info(),
		Messages:  history,
		UserCount: room.MemberCount(),
	})
	res.Merge(o.Dispatcher.SendTo(id, protocol.History{
		Type:     protocol.TypeHistory,
		Room:     room.ID(),
		Messages: history,
	}))
	return res
}

// LeaveRoom is a no-op when id is not a member of roomID.
// An empty roomID means the connection's current room.
func (o *Orchestrator) LeaveRoom(id core.ConnectionID, roomID domain.RoomID) error {
	o.mu.Lock()
	info, ok := o.Registry.Get(id)
	if !ok {
		o.mu.Unlock()
		return core.ErrUnknownConnection
	}
	if roomID == "" {
		roomID = info.Room
	}
	var res core.PublishResult
	if room, ok := o.Rooms.Get(roomID); ok && room.HasMember(id) {
		res = o.leaveLocked(id, roomID, info.User.Nickname)
		res.Merge(o.Dispatcher.SendTo(id, protocol.Left{Type: protocol.TypeLeft, Room: roomID}))
	}
	o.mu.Unlock()

	o.HandleDropped(res)
	return nil
}

func (o *Orchestrator) leaveLocked(id core.ConnectionID, roomID domain.RoomID, nickname string) core.PublishResult {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		o.Registry.ClearRoom(id, roomID)
		return core.PublishResult{}
	}
	if !room.RemoveMember(id) {
		return core.PublishResult{}
	}
	o.Registry.ClearRoom(id, roomID)
	room.Touch(o.clk.Now())

	res := o.Dispatcher.BroadcastToRoom(roomID, protocol.Presence{
		Type:     protocol.TypeUserLeft,
		Room:     roomID,
		Nickname: nickname,
		Count:    room.MemberCount(),
	}, "")
	if room.MemberCount() == 0 && !room.Permanent() {
		o.armLocked(roomID)
	}
	log.Info().Str("module", "orch").Str("cid", string(id)).Str("room", string(roomID)).Msg("left room")
	return res
}

func (o *Orchestrator) armLocked(roomID domain.RoomID) {
	o.Scheduler.Arm(roomID, o.ttl, func(gen uint64) { o.expire(roomID, gen) })
}

// expire runs on the timer goroutine. A fire that lost the race with a
// join, a re-arm or a cancel fails Claim and does nothing.
func (o *Orchestrator) expire(roomID domain.RoomID, gen uint64) {
	o.mu.Lock()
	if !o.Scheduler.Claim(roomID, gen) {
		o.mu.Unlock()
		return
	}
	room, ok := o.Rooms.Get(roomID)
	if !ok || room.Permanent() || room.MemberCount() > 0 {
		o.mu.Unlock()
		return
	}
	o.Rooms.Delete(roomID)
	res := o.Dispatcher.BroadcastGlobal(protocol.RoomRemoved{Type: protocol.TypeRoomRemoved, RoomID: roomID})
	o.mu.Unlock()

	log.Info().Str("module", "orch").Str("room", string(roomID)).Msg("expired empty room")
	o.HandleDropped(res)
}

// RoomInfo answers with room_update. Reads never touch the expiry timer.
func (o *Orchestrator) RoomInfo(id core.ConnectionID, roomID domain.RoomID) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return core.ErrRoomNotFound
	}
	o.Reply(id, protocol.RoomEvent{Type: protocol.TypeRoomUpdate, Room: room.Info()})
	return nil
}
