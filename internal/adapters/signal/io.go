package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/dkeye/runchat/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, id core.ConnectionID, c *WsSignalConn) {
	defer func() {
		if ctl.limiter != nil {
			ctl.limiter.Forget(id)
		}
		ctl.Orch.Disconnect(id)
		log.Info().Str("module", "signal").Str("cid", string(id)).Msg("readPump closing")
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		ctl.Orch.Touch(id)
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("cid", string(id)).Msg("readPump read error")
			}
			return
		}
		ctl.Orch.Touch(id)
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
		ctl.handleSignal(id, data)
	}
}

func (ctl *SignalWSController) handleSignal(id core.ConnectionID, data []byte) {
	req, err := protocol.Decode(data)
	if err != nil {
		var se *protocol.ShapeError
		if errors.As(err, &se) {
			ctl.sendError(id, se.Error())
			return
		}
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(id)).Msg("dropped frame")
		return
	}

	switch r := req.(type) {
	case *protocol.Join:
		err = ctl.handleJoin(id, r)
	case *protocol.Leave:
		err = ctl.Orch.LeaveRoom(id, domain.RoomID(r.Room))
	case *protocol.SendMessage:
		err = ctl.handleMessage(id, r)
	case *protocol.CreateRoom:
		err = ctl.createRoom(id, r)
	case *protocol.ProfileUpdate:
		err = ctl.handleProfile(id, r)
	case *protocol.GetRoomInfo:
		err = ctl.Orch.RoomInfo(id, domain.RoomID(r.Room))
	case *protocol.Ping:
		ctl.handlePing(id)
	}
	if err != nil {
		ctl.reportError(id, req.Kind(), err)
	}
}

func (ctl *SignalWSController) reportError(id core.ConnectionID, kind string, err error) {
	if core.IsValidation(err) || errors.Is(err, ErrRateLimited) {
		log.Debug().Err(err).Str("module", "signal").Str("cid", string(id)).Str("type", kind).Msg("rejected request")
		ctl.sendError(id, err.Error())
		return
	}
	log.Error().Err(err).Str("module", "signal").Str("cid", string(id)).Str("type", kind).Msg("request failed")
	ctl.sendError(id, "internal error")
}

func (ctl *SignalWSController) sendError(id core.ConnectionID, msg string) {
	ctl.Orch.Reply(id, protocol.NewError(msg))
}
