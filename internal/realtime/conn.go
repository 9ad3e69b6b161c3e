package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second

	// Pongs must arrive within pongWait; pings go out a bit earlier.
	pongWait = 60 * time.Second

	// PingPeriod is the interval between keepalive pings.
	PingPeriod = 50 * time.Second
)

// WSConn wraps a websocket connection with a write mutex. gorilla/websocket
// allows only one concurrent writer, and the router may push from many
// request goroutines.
type WSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewWSConn wraps an upgraded websocket connection and arms its read
// deadline, extended by every pong.
func NewWSConn(conn *websocket.Conn) *WSConn {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &WSConn{conn: conn}
}

// Send writes an envelope as a JSON message.
func (c *WSConn) Send(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errors.New("connection is closed")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(env)
}

// Ping sends a ping control frame. The caller runs this on a ticker; a
// failed ping means the peer is gone and the read loop will unwind.
func (c *WSConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errors.New("connection is closed")
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// ReadJSON reads the next JSON message from the client.
func (c *WSConn) ReadJSON(v any) error {
	return c.conn.ReadJSON(v)
}

// Close closes the underlying connection.
func (c *WSConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

var _ Subscriber = (*WSConn)(nil)
