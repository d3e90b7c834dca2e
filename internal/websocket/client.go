package websocket

import (
	"errors"
	"sync"

	"github.com/coder/websocket"
)

var (
	// ErrClientClosed is returned when enqueueing to a client whose send
	// channel is already shut down.
	ErrClientClosed = errors.New("client is closed")
	// ErrSendBufferFull is returned when a client's outbound queue is
	// saturated, which we treat as a dead or jammed connection.
	ErrSendBufferFull = errors.New("client send buffer full")
)

// Client is a single live WebSocket connection. A user with several tabs
// or devices holds one Client per connection; the gateway's registry keys
// them by ConnID.
type Client struct {
	// ConnID uniquely identifies this connection for the lifetime of the
	// socket.
	ConnID string
	// UserID is the authenticated owner of the connection.
	UserID string

	conn *websocket.Conn
	// send is the connection's ordered outbound queue. The write pump
	// drains it sequentially, which is what preserves per-connection
	// delivery order.
	send chan []byte

	mu sync.RWMutex
}

func newClient(connID, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ConnID: connID,
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
}

// SendMessage enqueues a payload for the write pump. It never blocks: a
// full buffer is reported as an error so the caller can treat the
// connection as failed.
func (c *Client) SendMessage(msg []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return ErrClientClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close shuts the outbound queue. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}
