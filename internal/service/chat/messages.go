package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/duochat-server/internal/store"
	"github.com/vovakirdan/duochat-server/internal/utils"
)

// SendMessage appends a message to a room the sender belongs to and returns
// it together with the updated room.
func (s *Service) SendMessage(ctx context.Context, senderID, roomID, text string) (*store.Message, *store.ChatRoom, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, ErrEmptyMessage
	}

	sender, err := s.profile(ctx, senderID, ErrProfileNotFound)
	if err != nil {
		return nil, nil, err
	}
	if sender.IsDeactivated {
		return nil, nil, ErrProfileDeactivated
	}
	if !sender.HasRoom(roomID) {
		return nil, nil, ErrRoomNotFound
	}

	room, err := s.room(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	counterpartyID, ok := room.Counterparty(senderID)
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	counterparty, err := s.profile(ctx, counterpartyID, ErrProfileNotFound)
	if err != nil {
		return nil, nil, err
	}
	if store.EitherBlocks(sender, counterparty) {
		return nil, nil, ErrBlocked
	}

	msg := &store.Message{
		ID:       utils.NewID(),
		RoomID:   roomID,
		SenderID: senderID,
		Text:     text,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrRoomNotFound
		}
		return nil, nil, fmt.Errorf("append message: %w", err)
	}

	updated, err := s.room(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}

	s.log.Debug().Str("message_id", msg.ID).Str("room_id", roomID).Int64("seq", msg.Seq).Msg("message sent")
	s.publish(ctx, Event{Kind: EventMessageCreated, Room: updated, Message: msg})
	return msg, updated, nil
}

// DeleteMessage deletes a message owned by the requester and returns the
// updated room.
func (s *Service) DeleteMessage(ctx context.Context, requesterID, messageID string) (*store.ChatRoom, error) {
	requester, err := s.profile(ctx, requesterID, ErrProfileNotFound)
	if err != nil {
		return nil, err
	}
	if requester.IsDeactivated {
		return nil, ErrProfileDeactivated
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg.SenderID != requesterID {
		return nil, ErrNotSender
	}

	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("delete message: %w", err)
	}

	room, err := s.room(ctx, msg.RoomID)
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("message_id", messageID).Str("room_id", msg.RoomID).Msg("message deleted")
	s.publish(ctx, Event{Kind: EventMessageDeleted, Room: room, Message: msg})
	return room, nil
}
