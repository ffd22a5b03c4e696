package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/runchat/internal/app/orch"
	"github.com/dkeye/runchat/internal/clock"
	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

type Options struct {
	ReadLimit    int64
	PongWait     time.Duration
	WriteWait    time.Duration
	SendBuffer   int
	RateLimit    int
	RateInterval time.Duration
}

func (o *Options) withDefaults() {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	opts    Options
	limiter *RateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	opts.withDefaults()
	ctl := &SignalWSController{Orch: o, opts: opts}
	if opts.RateLimit > 0 && opts.RateInterval > 0 {
		ctl.limiter = NewRateLimiter(clock.Real{}, opts.RateLimit, opts.RateInterval)
	}
	return ctl
}

// WsSignalConn is the outbound half of one websocket. Frames go through a
// bounded queue drained by writePump.
type WsSignalConn struct {
	conn      *websocket.Conn
	send      chan core.Frame
	writeWait time.Duration

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Ping() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeWait))
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	userID := domain.UserID(c.GetString("client_token"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn:      ws,
		send:      make(chan core.Frame, ctl.opts.SendBuffer),
		writeWait: ctl.opts.WriteWait,
	}
	id := ctl.Orch.Connect(userID, conn)
	log.Info().Str("module", "signal").Str("cid", string(id)).Str("user", string(userID)).Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, id, conn)
}
