package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Outbound is the envelope for frames sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	InboundTypeJoin  = "joinRoom"
	InboundTypeLeave = "leaveRoom"
	InboundTypeSend  = "send-message"

	OutboundTypeReceive = "receive-message"
	OutboundTypeJoined  = "joined"
	OutboundTypeError   = "error"
)

// JoinData requests to join a room channel.
type JoinData struct {
	RoomID string `json:"roomId"`
}

// MessageData carries a message with the room it belongs to. It is the
// payload of both send-message and receive-message.
type MessageData struct {
	MessageObject MessageObject `json:"messageObject"`
	ChatRoom      ChatRoom      `json:"chatRoom"`
}

// JoinedData confirms a join.
type JoinedData struct {
	RoomID string `json:"roomId"`
}

// MessageObject is the wire form of a chat message.
type MessageObject struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Sender    string    `json:"sender"`
	ChatRoom  string    `json:"chatRoom"`
	Seq       int64     `json:"seq,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatRoom is the wire form of a room snapshot.
type ChatRoom struct {
	ID           string    `json:"id"`
	PairProfiles []string  `json:"pairProfiles"`
	Messages     []string  `json:"messages"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
