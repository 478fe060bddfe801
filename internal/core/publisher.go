package core

import (
	"context"

	"github.com/vovakirdan/duochat-server/internal/service/chat"
)

// ChatPublisher forwards created messages from the chat service to the hub.
type ChatPublisher struct {
	hub *Hub
}

// NewChatPublisher returns a chat.EventPublisher backed by hub.
func NewChatPublisher(hub *Hub) *ChatPublisher {
	return &ChatPublisher{hub: hub}
}

// Publish implements chat.EventPublisher. Only message creation is relayed.
func (p *ChatPublisher) Publish(ctx context.Context, ev chat.Event) {
	if ev.Kind != chat.EventMessageCreated || ev.Room == nil || ev.Message == nil {
		return
	}
	p.hub.Publish(ctx, ev.Room.ID, MessageFromStore(ev.Message), SnapshotFromStore(ev.Room))
}
