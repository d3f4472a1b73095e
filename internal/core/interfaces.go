package core

import (
	"context"

	"github.com/dkeye/invitegate/internal/domain"
)

// Frame is a raw text payload going over a signal connection.
type Frame []byte

// DataKind selects the delivery mode for a room data message.
type DataKind string

const (
	DataReliable DataKind = "RELIABLE"
	DataLossy    DataKind = "LOSSY"
)

// SignalConnection abstracts a live bidirectional text channel.
// Owned by the adapter; the adapter must Close() it. The registry
// only holds a non-owning reference.
type SignalConnection interface {
	TrySend(Frame) error
	IsOpen() bool
	Close()
}

// RoomService is the control plane of the external media server.
// An empty dest slice addresses all current room participants.
type RoomService interface {
	ListRooms(ctx context.Context) ([]domain.Room, error)
	SendData(ctx context.Context, room domain.RoomName, payload []byte, kind DataKind, dest []domain.Identity) error
}

// TokenMinter produces a signed access token granting join permission
// to exactly one room for exactly one identity. name is the display
// name embedded in the token, not necessarily the identity.
type TokenMinter interface {
	Mint(identity domain.Identity, name string, room domain.RoomName) (string, error)
}

// WebhookReceiver validates and parses a signed webhook delivery.
type WebhookReceiver interface {
	Receive(body []byte, authHeader string) (*WebhookEvent, error)
}
