// Package services implements the business logic between the websocket
// handlers and the task scheduler.
//
// Handlers never write to a connection themselves. Every reply or broadcast is
// wrapped in a closure and submitted to the shared scheduler with a
// configured priority, so slow peers never block the read loop of another
// connection.
//
// # Service Dependency Graph
//
//	Handlers (HTTP / websocket endpoints)
//	    │
//	    ▼
//	Services Layer
//	    ├── EchoService ────► Scheduler, hub.Registry (echo)
//	    ├── ChatService ────► Scheduler, hub.Registry (chat)
//	    └── StatusService ──► Scheduler, both registries
//
// # EchoService
//
// Each received message is submitted as a task that writes the payload back to
// the sender. Echo clients join their own registry so that shutdown can close
// them; nothing is ever broadcast to it. Submission fails with a SchedulerStoppedError once the scheduler
// is shutting down; the handler closes the connection in that case.
//
// # ChatService
//
// ChatService owns no global state. The registry of connected clients is
// created by the caller and passed in, and is guarded by its own lock:
//
//	registry := hub.NewRegistry()
//	chat := services.NewChatService(sched, registry, cfg.Hub.BroadcastPriority)
//
//	client := chat.Join(conn)
//	defer chat.Leave(client)
//	err := chat.Broadcast(models.NewMessage(client.ID(), models.ConnectionKindChat, payload))
//
// A broadcast task snapshots the registry and writes to every client.
// Clients whose write fails are closed and removed; the combined error is
// reported through the scheduler's error sink. Every write is bounded by the
// registry's write timeout, so a peer that stops reading holds a worker for
// at most Hub.WriteTimeout.
//
// # Thread Safety
//
// All services are safe for concurrent use. They hold no mutable state of
// their own; the scheduler and the registry synchronize internally.
package services
