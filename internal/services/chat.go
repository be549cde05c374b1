package services

import (
	"go.uber.org/zap"

	"github.com/kubev2v/priority-scheduler/internal/hub"
	"github.com/kubev2v/priority-scheduler/internal/models"
	"github.com/kubev2v/priority-scheduler/pkg/scheduler"
)

// ChatService relays every message to all clients of its registry.
type ChatService struct {
	scheduler *scheduler.Scheduler
	registry  *hub.Registry
	priority  int
}

func NewChatService(s *scheduler.Scheduler, registry *hub.Registry, priority int) *ChatService {
	return &ChatService{
		scheduler: s,
		registry:  registry,
		priority:  priority,
	}
}

func (c *ChatService) Join(conn hub.Conn) *hub.Client {
	client := c.registry.Add(conn)
	zap.S().Named("chat_service").Infow("client joined", "id", client.ID(), "connections", c.registry.Len())
	return client
}

func (c *ChatService) Leave(client *hub.Client) {
	c.registry.Remove(client.ID())
	_ = client.Close()
	zap.S().Named("chat_service").Infow("client left", "id", client.ID(), "connections", c.registry.Len())
}

// Broadcast enqueues delivery of msg to every connected client, the sender included.
func (c *ChatService) Broadcast(msg models.Message) error {
	payload := msg.Payload
	return c.scheduler.Submit(c.priority, scheduler.ErrFunc(func() error {
		return c.registry.Broadcast(payload)
	}))
}

func (c *ChatService) Connections() int {
	return c.registry.Len()
}
