package hub

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Registry tracks the clients of one endpoint. It is owned by its creator and
// handed to whoever needs it; there is no package level instance.
type Registry struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]*Client
	clientOpts []ClientOption
}

// NewRegistry returns an empty registry. opts are applied to every client
// created by Add.
func NewRegistry(opts ...ClientOption) *Registry {
	return &Registry{
		clients:    make(map[uuid.UUID]*Client),
		clientOpts: opts,
	}
}

func (r *Registry) Add(conn Conn) *Client {
	c := NewClient(conn, r.clientOpts...)

	r.mu.Lock()
	r.clients[c.ID()] = c
	r.mu.Unlock()

	zap.S().Named("hub").Debugw("client registered", "id", c.ID())
	return c
}

// Remove drops the client from the registry without closing it.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return false
	}
	delete(r.clients, id)
	zap.S().Named("hub").Debugw("client unregistered", "id", id)
	return true
}

func (r *Registry) Get(id uuid.UUID) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast writes payload to every registered client. Clients that fail are
// closed and removed; their errors are combined in the returned error.
func (r *Registry) Broadcast(payload []byte) error {
	var err error
	for _, c := range r.snapshot() {
		if sendErr := c.Send(payload); sendErr != nil {
			err = multierr.Append(err, fmt.Errorf("client %s: %w", c.ID(), sendErr))
			r.Remove(c.ID())
			_ = c.Close()
		}
	}
	return err
}

// CloseAll closes and removes every client.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[uuid.UUID]*Client)
	r.mu.Unlock()

	var err error
	for id, c := range clients {
		if closeErr := c.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("client %s: %w", id, closeErr))
		}
	}
	return err
}

func (r *Registry) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	return clients
}
