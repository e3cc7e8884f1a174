package ws

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/cwrk-planet/room-relay/internal/domain"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// wsConn is the relay's sink for one socket. Send only enqueues; the write
// pump owns every data write to the socket.
type wsConn struct {
	conn *websocket.Conn
	id   string
	addr string

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn, addr string, buffer int) *wsConn {
	if buffer <= 0 {
		buffer = 64
	}
	return &wsConn{
		conn:   c,
		addr:   addr,
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

// Send never blocks and does no socket I/O: it runs under the relay lock.
// A full buffer means the client cannot keep up, so the socket is dropped
// and the read loop reports the disconnect to the relay.
func (c *wsConn) Send(ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.abort()
		return domain.ErrSendBufferFull
	}
}

func (c *wsConn) markClosed() bool {
	first := false
	c.closeOnce.Do(func() {
		close(c.closed)
		first = true
	})
	return first
}

// abort drops the connection without a close frame. The write pump may hold
// the socket for up to writeWait, so nothing here waits on it.
func (c *wsConn) abort() {
	if c.markClosed() {
		_ = c.conn.Close()
	}
}

// Close says goodbye with a close frame. It may block up to a second and
// must not be called with the relay lock held.
func (c *wsConn) Close() error {
	if !c.markClosed() {
		return net.ErrClosed
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *wsConn) writeLoop(pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.abort()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.abort()
				return
			}
		case <-c.closed:
			return
		}
	}
}
