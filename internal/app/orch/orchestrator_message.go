package orch

import (
	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/dkeye/runchat/internal/protocol"
	"github.com/google/uuid"
)

// SendMessage appends text to the sender's room and fans it out to every
// member, the sender included. Blank text is dropped without error.
func (o *Orchestrator) SendMessage(id core.ConnectionID, text string) error {
	o.mu.Lock()
	info, ok := o.Registry.Get(id)
	if !ok {
		o.mu.Unlock()
		return core.ErrUnknownConnection
	}
	room, ok := o.Rooms.Get(info.Room)
	if info.Room == "" || !ok || !room.HasMember(id) {
		o.mu.Unlock()
		return core.ErrNotInRoom
	}
	body, err := domain.NormalizeText(text)
	if err != nil || body == "" {
		o.mu.Unlock()
		return err
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		RoomID:    room.ID(),
		SenderID:  string(id),
		UserID:    info.User.ID,
		Nickname:  info.User.Nickname,
		Text:      body,
		Timestamp: o.clk.Now(),
	}
	room.Append(msg)
	o.Presence.RecordMessage()
	res := o.Dispatcher.BroadcastToRoom(room.ID(), protocol.NewChatMessage(msg), "")
	o.mu.Unlock()

	o.HandleDropped(res)
	return nil
}

// Logs copies the newest limit messages of every permanent room under
// the transition lock, so the result is one consistent cut. Ephemeral
// rooms are never restored and are left out.
func (o *Orchestrator) Logs(limit int) map[domain.RoomID][]domain.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[domain.RoomID][]domain.Message)
	for _, r := range o.Rooms.All() {
		if !r.Permanent() {
			continue
		}
		out[r.ID()] = r.Recent(limit)
	}
	return out
}

// RestoreLog overwrites a room's log. Reports false for unknown rooms.
func (o *Orchestrator) RestoreLog(roomID domain.RoomID, msgs []domain.Message) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return false
	}
	room.ReplaceHistory(msgs)
	return true
}
