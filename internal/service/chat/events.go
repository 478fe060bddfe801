package chat

import (
	"context"

	"github.com/vovakirdan/duochat-server/internal/store"
)

// EventKind names a change in the room registry or message store.
type EventKind string

const (
	EventRoomCreated    EventKind = "room.created"
	EventRoomDeleted    EventKind = "room.deleted"
	EventMessageCreated EventKind = "message.created"
	EventMessageDeleted EventKind = "message.deleted"
)

// Event describes a completed operation. Message is nil for room events.
type Event struct {
	Kind    EventKind
	Room    *store.ChatRoom
	Message *store.Message
}

// EventPublisher receives events after the corresponding write has been
// committed. Implementations must not block for long; delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event)
}

// Publishers fans an event out to every publisher in order.
type Publishers []EventPublisher

// Publish implements EventPublisher.
func (p Publishers) Publish(ctx context.Context, ev Event) {
	for _, pub := range p {
		if pub != nil {
			pub.Publish(ctx, ev)
		}
	}
}
