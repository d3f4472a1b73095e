package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/invitegate/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, cid string, c *WsConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("cid", cid).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Str("cid", cid).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, cid string, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("cid", cid).Msg("WS connection closed")
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("cid", cid).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("cid", cid).Msg("readPump read error")
				return
			}
			ctl.handleMessage(cid, c, data)
		}
	}
}

// handleMessage dispatches an inbound text frame. A malformed or
// unknown message is logged and dropped; the connection stays open.
func (ctl *Controller) handleMessage(cid string, c *WsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("cid", cid).Msg("bad json")
		return
	}

	switch env.Type {
	case "participantInfo":
		ctl.handleParticipantInfo(cid, c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *Controller) handleParticipantInfo(cid string, c *WsConn, data []byte) {
	var p struct {
		Type            string `json:"type"`
		ParticipantName string `json:"participantName"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("cid", cid).Msg("bad participantInfo payload")
		return
	}
	id, err := domain.NewIdentity(p.ParticipantName)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("cid", cid).Msg("invalid participant name")
		return
	}
	ctl.Registry.Register(id, c)
}
