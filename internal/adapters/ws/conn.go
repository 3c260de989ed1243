package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrBackpressure = errors.New("backpressure")

// Frame is one marshaled outbound event.
type Frame []byte

// Conn wraps a websocket with a buffered send queue. TrySend never
// blocks: a full queue means the client is too slow and the frame is
// dropped (best-effort broadcast, no delivery guarantee).
type Conn struct {
	ws   *websocket.Conn
	send chan Frame

	mu     sync.RWMutex
	closed bool
}

func newConn(ws *websocket.Conn, queue int) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan Frame, queue),
	}
}

func (c *Conn) TrySend(f Frame) error {
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

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
	c.mu.Unlock()
}
