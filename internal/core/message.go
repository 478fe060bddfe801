package core

import (
	"time"

	"github.com/vovakirdan/duochat-server/internal/store"
)

// Message is the relay view of a chat message.
type Message struct {
	ID        string
	RoomID    string
	SenderID  string
	Text      string
	Seq       int64
	CreatedAt time.Time
}

// RoomSnapshot is the room state delivered alongside a message.
type RoomSnapshot struct {
	ID           string
	PairProfiles [2]string
	Messages     []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MessageFromStore converts a stored message into its relay view.
func MessageFromStore(m *store.Message) Message {
	if m == nil {
		return Message{}
	}
	return Message{
		ID:        m.ID,
		RoomID:    m.RoomID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		Seq:       m.Seq,
		CreatedAt: m.CreatedAt,
	}
}

// SnapshotFromStore converts a stored room into a snapshot.
func SnapshotFromStore(r *store.ChatRoom) RoomSnapshot {
	if r == nil {
		return RoomSnapshot{}
	}
	return RoomSnapshot{
		ID:           r.ID,
		PairProfiles: r.PairProfiles,
		Messages:     append([]string(nil), r.Messages...),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
