package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/idom/pkg/protocol"
)

// Conn carries protocol messages between a server and one client.
// Send may be called concurrently with Receive and with itself.
type Conn interface {
	// Send writes one message.
	Send(ctx context.Context, msg protocol.Message) error

	// Receive blocks until the next message arrives. A message that fails
	// to decode is returned as a *protocol.ProtocolError and the connection
	// stays usable. Any other error means the connection is gone.
	Receive(ctx context.Context) (protocol.Message, error)

	// Close closes the connection. It unblocks a pending Receive.
	Close() error
}

// wsConn is a Conn over a gorilla WebSocket. Each message is one binary
// WebSocket message holding one frame.
type wsConn struct {
	ws     *websocket.Conn
	codec  *protocol.Codec
	config *Config

	writeMu sync.Mutex
	once    sync.Once
}

// NewWebSocketConn wraps an upgraded WebSocket connection.
func NewWebSocketConn(ws *websocket.Conn, config *Config) Conn {
	config = config.withDefaults()
	ws.SetReadLimit(config.MaxMessageSize)
	return &wsConn{
		ws:     ws,
		codec:  &protocol.Codec{MaxPayloadSize: int(config.MaxMessageSize)},
		config: config,
	}
}

func (c *wsConn) Send(ctx context.Context, msg protocol.Message) error {
	data, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(c.config.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return closedErr(err)
	}
	return nil
}

func (c *wsConn) Receive(ctx context.Context) (protocol.Message, error) {
	for {
		c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, closedErr(err)
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		return c.codec.Decode(data)
	}
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		c.writeMu.Lock()
		c.ws.SetWriteDeadline(time.Now().Add(time.Second))
		c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

// closedErr maps the errors of a WebSocket that went away to ErrConnClosed.
func closedErr(err error) error {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure) || errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, net.ErrClosed) {
		return errors.Join(ErrConnClosed, err)
	}
	return err
}
