package signal

import (
	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/protocol"
)

func (ctl *SignalWSController) handlePing(id core.ConnectionID) {
	ctl.Orch.Reply(id, protocol.Pong{Type: protocol.TypePong})
}
