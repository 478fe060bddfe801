package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/vovakirdan/duochat-server/internal/store"
	"github.com/vovakirdan/duochat-server/internal/utils"
)

// RoomSummary pairs a room with the participant who is not the caller.
type RoomSummary struct {
	RoomID         string
	CounterpartyID string
}

// CreateRoom creates a room between requester and target.
func (s *Service) CreateRoom(ctx context.Context, requesterID, targetID string) (*store.ChatRoom, error) {
	if requesterID == targetID {
		return nil, ErrSelfRoom
	}

	requester, err := s.profile(ctx, requesterID, ErrProfileNotFound)
	if err != nil {
		return nil, err
	}
	target, err := s.profile(ctx, targetID, ErrTargetNotFound)
	if err != nil {
		return nil, err
	}

	if store.EitherBlocks(requester, target) {
		return nil, ErrBlocked
	}

	pairKey := store.PairKey(requesterID, targetID)
	if _, err := s.store.GetRoomByPairKey(ctx, pairKey); err == nil {
		return nil, ErrRoomExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup pair room: %w", err)
	}

	room := &store.ChatRoom{
		ID:           utils.NewID(),
		PairProfiles: [2]string{requesterID, targetID},
	}
	if err := s.store.CreatePairRoom(ctx, room); err != nil {
		// lost a race against a concurrent create for the same pair
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrRoomExists
		}
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.log.Info().Str("room_id", room.ID).Str("requester", requesterID).Str("target", targetID).Msg("chat room created")
	s.publish(ctx, Event{Kind: EventRoomCreated, Room: room})
	return room, nil
}

// DeleteRoom deletes a room the requester takes part in, along with its
// messages and both membership entries.
func (s *Service) DeleteRoom(ctx context.Context, requesterID, roomID string) error {
	room, err := s.room(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasParticipant(requesterID) {
		return ErrRoomNotFound
	}

	if err := s.store.DeleteRoom(ctx, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("delete room: %w", err)
	}

	s.log.Info().Str("room_id", roomID).Str("requester", requesterID).Msg("chat room deleted")
	s.publish(ctx, Event{Kind: EventRoomDeleted, Room: room})
	return nil
}

// ListRoomsFor lists the rooms of profileID with their counterparties.
// Only the profile owner may list them.
func (s *Service) ListRoomsFor(ctx context.Context, callerID, profileID string) ([]RoomSummary, error) {
	if callerID != profileID {
		return nil, ErrForeignRooms
	}
	if _, err := s.profile(ctx, profileID, ErrProfileNotFound); err != nil {
		return nil, err
	}

	rooms, err := s.store.ListRoomsForProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	return lo.FilterMap(rooms, func(room *store.ChatRoom, _ int) (RoomSummary, bool) {
		other, ok := room.Counterparty(profileID)
		return RoomSummary{RoomID: room.ID, CounterpartyID: other}, ok
	}), nil
}

// RoomMessages returns a room and its messages in append order.
func (s *Service) RoomMessages(ctx context.Context, requesterID, roomID string) (*store.ChatRoom, []*store.Message, error) {
	room, err := s.room(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if !room.HasParticipant(requesterID) {
		return nil, nil, ErrRoomNotFound
	}

	messages, err := s.store.ListMessages(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("list messages: %w", err)
	}
	return room, messages, nil
}

// IsParticipant reports whether profileID is one of the room's pair.
// A missing room yields false without an error.
func (s *Service) IsParticipant(ctx context.Context, profileID, roomID string) (bool, error) {
	room, err := s.room(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return false, nil
		}
		return false, err
	}
	return room.HasParticipant(profileID), nil
}
