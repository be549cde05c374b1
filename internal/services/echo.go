package services

import (
	"go.uber.org/zap"

	"github.com/kubev2v/priority-scheduler/internal/hub"
	"github.com/kubev2v/priority-scheduler/internal/models"
	"github.com/kubev2v/priority-scheduler/pkg/scheduler"
)

// EchoService sends every received message back to its sender through the scheduler.
// Connected clients are tracked so they can be closed on shutdown.
type EchoService struct {
	scheduler *scheduler.Scheduler
	registry  *hub.Registry
	priority  int
}

func NewEchoService(s *scheduler.Scheduler, registry *hub.Registry, priority int) *EchoService {
	return &EchoService{scheduler: s, registry: registry, priority: priority}
}

func (e *EchoService) Join(conn hub.Conn) *hub.Client {
	client := e.registry.Add(conn)
	zap.S().Named("echo_service").Debugw("client joined", "id", client.ID(), "connections", e.registry.Len())
	return client
}

func (e *EchoService) Leave(client *hub.Client) {
	e.registry.Remove(client.ID())
	_ = client.Close()
	zap.S().Named("echo_service").Debugw("client left", "id", client.ID(), "connections", e.registry.Len())
}

// Echo enqueues the reply and returns without waiting for it to be written.
func (e *EchoService) Echo(client *hub.Client, msg models.Message) error {
	payload := msg.Payload
	return e.scheduler.Submit(e.priority, scheduler.ErrFunc(func() error {
		return client.Send(payload)
	}))
}

func (e *EchoService) Connections() int {
	return e.registry.Len()
}
