// Package signal owns the WebSocket side of the relay: it accepts
// connections, feeds identity announcements into the registry, and
// carries server-pushed token messages back out.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/invitegate/internal/app"
	"github.com/dkeye/invitegate/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Registry   *app.Registry
	ReadLimit  int64
	PingPeriod time.Duration
}

const defaultPingPeriod = 54 * time.Second

func NewController(reg *app.Registry, readLimit int64, pingPeriod time.Duration) *Controller {
	if pingPeriod <= 0 {
		pingPeriod = defaultPingPeriod
	}
	return &Controller{
		Registry:   reg,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
}

// WsConn wraps a websocket connection behind core.SignalConnection.
// Writes go through a buffered channel drained by the write pump;
// TrySend never blocks a caller on a slow peer.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

func (c *WsConn) Close() {
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

// HandleWS upgrades the request and starts the pump pair. The conn is
// not registered until the client announces its participant name.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	cid := c.GetString("client_token")
	log.Info().Str("module", "signal").Str("cid", cid).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cid, conn)
	go ctl.readPump(ctx, cancel, cid, conn)
}
