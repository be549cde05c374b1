package models

import (
	"time"

	"github.com/google/uuid"
)

type ConnectionKind string

const (
	ConnectionKindEcho ConnectionKind = "echo"
	ConnectionKindChat ConnectionKind = "chat"
)

// Message is a single websocket text frame received from a client.
type Message struct {
	ConnectionID uuid.UUID
	Kind         ConnectionKind
	Payload      []byte
	ReceivedAt   time.Time
}

func NewMessage(connID uuid.UUID, kind ConnectionKind, payload []byte) Message {
	return Message{
		ConnectionID: connID,
		Kind:         kind,
		Payload:      payload,
		ReceivedAt:   time.Now(),
	}
}
