package signal

import (
	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/dkeye/runchat/internal/protocol"
)

func (ctl *SignalWSController) handleProfile(id core.ConnectionID, r *protocol.ProfileUpdate) error {
	return ctl.Orch.UpdateProfile(id, domain.UserID(r.UserID), r.Nickname, r.Anonymous)
}
