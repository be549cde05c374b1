package hub

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const DefaultWriteTimeout = 10 * time.Second

var ErrClientClosed = errors.New("client is closed")

// Conn is the subset of *websocket.Conn used to talk to a client.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type ClientOption func(*Client)

// WithWriteTimeout bounds every write. A zero or negative timeout disables
// the deadline.
func WithWriteTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.writeTimeout = d
	}
}

// Client is a connected websocket peer. Writes are serialized because the
// underlying connection supports only one concurrent writer. Close does not
// wait for a pending write; closing the connection fails that write instead.
type Client struct {
	id           uuid.UUID
	writeTimeout time.Duration

	mu     sync.Mutex
	conn   Conn
	closed atomic.Bool
}

func NewClient(conn Conn, opts ...ClientOption) *Client {
	c := &Client{
		id:           uuid.New(),
		conn:         conn,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ID() uuid.UUID {
	return c.id
}

func (c *Client) Send(payload []byte) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return ErrClientClosed
	}
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close closes the connection once; later calls are no-ops.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}
