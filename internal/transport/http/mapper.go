package http

import (
	"encoding/json"
	"time"

	"github.com/vovakirdan/duochat-server/internal/core"
	"github.com/vovakirdan/duochat-server/internal/proto"
	"github.com/vovakirdan/duochat-server/internal/store"
)

// ProfileResponse represents a profile in API responses.
type ProfileResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	IsDeactivated   bool      `json:"isDeactivated"`
	BlockedProfiles []string  `json:"blockedProfiles"`
	ChatRooms       []string  `json:"chatRooms"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func profileResponse(p *store.Profile) ProfileResponse {
	return ProfileResponse{
		ID:              p.ID,
		UserID:          p.UserID,
		Name:            p.Name,
		Status:          p.Status,
		IsDeactivated:   p.IsDeactivated,
		BlockedProfiles: nonNil(p.BlockedProfiles),
		ChatRooms:       nonNil(p.ChatRooms),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func roomResponse(r *store.ChatRoom) proto.ChatRoom {
	return proto.ChatRoom{
		ID:           r.ID,
		PairProfiles: r.PairProfiles[:],
		Messages:     nonNil(r.Messages),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func messageResponse(m *store.Message) proto.MessageObject {
	return proto.MessageObject{
		ID:        m.ID,
		Message:   m.Text,
		Sender:    m.SenderID,
		ChatRoom:  m.RoomID,
		Seq:       m.Seq,
		CreatedAt: m.CreatedAt,
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.RoomID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "roomId is required"}, nil
		}
		return &core.Command{Kind: core.CommandJoinRoom, Room: join.RoomID}, nil, nil
	case proto.InboundTypeLeave:
		return &core.Command{Kind: core.CommandLeaveRoom}, nil, nil
	case proto.InboundTypeSend:
		var data proto.MessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		room := data.ChatRoom.ID
		if room == "" {
			room = data.MessageObject.ChatRoom
		}
		if room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatRoom id is required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandRelayMessage,
			Room:     room,
			Message:  messageFromWire(data.MessageObject),
			Snapshot: snapshotFromWire(data.ChatRoom),
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventReceiveMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeReceive,
			Data: proto.MessageData{
				MessageObject: messageToWire(event.Message),
				ChatRoom:      snapshotToWire(event.Snapshot),
			},
		}
	case core.EventJoined:
		return proto.Outbound{
			Type: proto.OutboundTypeJoined,
			Data: proto.JoinedData{RoomID: event.Room},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Data: proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeError,
			Data: proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Data: proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
}

func messageFromWire(m proto.MessageObject) core.Message {
	return core.Message{
		ID:        m.ID,
		RoomID:    m.ChatRoom,
		SenderID:  m.Sender,
		Text:      m.Message,
		Seq:       m.Seq,
		CreatedAt: m.CreatedAt,
	}
}

func messageToWire(m core.Message) proto.MessageObject {
	return proto.MessageObject{
		ID:        m.ID,
		Message:   m.Text,
		Sender:    m.SenderID,
		ChatRoom:  m.RoomID,
		Seq:       m.Seq,
		CreatedAt: m.CreatedAt,
	}
}

func snapshotFromWire(r proto.ChatRoom) core.RoomSnapshot {
	var pair [2]string
	copy(pair[:], r.PairProfiles)
	return core.RoomSnapshot{
		ID:           r.ID,
		PairProfiles: pair,
		Messages:     r.Messages,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func snapshotToWire(r core.RoomSnapshot) proto.ChatRoom {
	return proto.ChatRoom{
		ID:           r.ID,
		PairProfiles: r.PairProfiles[:],
		Messages:     nonNil(r.Messages),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
