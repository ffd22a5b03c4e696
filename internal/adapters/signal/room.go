package signal

import (
	"github.com/dkeye/runchat/internal/app/orch"
	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/dkeye/runchat/internal/protocol"
)

func (ctl *SignalWSController) createRoom(id core.ConnectionID, r *protocol.CreateRoom) error {
	if err := ctl.allow(id); err != nil {
		return err
	}
	_, err := ctl.Orch.CreateRoom(id, orch.RoomSpec{
		Name:        r.Name,
		Description: r.Description,
		Icon:        r.Icon,
		Private:     r.Private,
	})
	return err
}

func (ctl *SignalWSController) handleJoin(id core.ConnectionID, r *protocol.Join) error {
	return ctl.Orch.JoinRoom(id, domain.RoomID(r.Room), r.Nickname, domain.UserID(r.UserID))
}

func (ctl *SignalWSController) handleMessage(id core.ConnectionID, r *protocol.SendMessage) error {
	if err := ctl.allow(id); err != nil {
		return err
	}
	return ctl.Orch.SendMessage(id, r.Text)
}

func (ctl *SignalWSController) allow(id core.ConnectionID) error {
	if ctl.limiter == nil || ctl.limiter.Allow(id) {
		return nil
	}
	return ErrRateLimited
}
