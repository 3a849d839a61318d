package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Bitcomethub/Somnus/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Conn wraps one websocket session: its identity, its outbound sink,
// and the single write pump that keeps the channel ordered.
type Conn struct {
	id   domain.ConnectionID
	ws   *websocket.Conn
	sink *Sink
	log  *slog.Logger
}

func NewConn(ws *websocket.Conn, sink *Sink, log *slog.Logger) *Conn {
	id := domain.NewConnectionID()
	return &Conn{id: id, ws: ws, sink: sink, log: log.With("conn", id)}
}

func (c *Conn) ID() domain.ConnectionID { return c.id }

// WritePump drains the sink onto the socket and keeps the connection
// alive with pings. It is the only goroutine writing to the socket.
// Exits when the context is cancelled or a write fails; the underlying
// transport liveness (ping/pong) is what ultimately drives disconnects.
func (c *Conn) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-c.sink.Events():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(Envelope{Event: evt.Name(), Data: marshalPayload(evt, c.log)}); err != nil {
				c.log.Debug("Write failed, closing write pump", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadFrame blocks for the next inbound envelope. Returns false when
// the connection is gone.
func (c *Conn) ReadFrame() (Envelope, bool) {
	var env Envelope
	if err := c.ws.ReadJSON(&env); err != nil {
		return Envelope{}, false
	}
	return env, true
}

func (c *Conn) PrepareRead() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
}
