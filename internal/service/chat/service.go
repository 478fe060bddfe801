// Package chat implements the room registry and the message store on top of
// the storage layer.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/duochat-server/internal/service/errs"
	"github.com/vovakirdan/duochat-server/internal/store"
)

// Domain errors returned by the chat service.
var (
	ErrProfileNotFound    = errs.New(errs.KindNotFound, "profile not found")
	ErrTargetNotFound     = errs.New(errs.KindNotFound, "requested profile not found")
	ErrRoomNotFound       = errs.New(errs.KindNotFound, "no such room found for profile")
	ErrMessageNotFound    = errs.New(errs.KindNotFound, "message not found")
	ErrBlocked            = errs.New(errs.KindBlocked, "profile is blocked or you are blocked by them")
	ErrRoomExists         = errs.New(errs.KindAlreadyExists, "chat room already exists with requested profile")
	ErrSelfRoom           = errs.New(errs.KindValidation, "cannot create a chat room with yourself")
	ErrEmptyMessage       = errs.New(errs.KindValidation, "message text is required")
	ErrNotSender          = errs.New(errs.KindNotAcceptable, "no permission to delete this message")
	ErrForeignRooms       = errs.New(errs.KindForbidden, "cannot list rooms of another profile")
	ErrProfileDeactivated = errs.New(errs.KindForbidden, "profile is deactivated")
)

// Store is the storage the chat service needs.
type Store interface {
	store.ProfileStore
	store.RoomStore
	store.MessageStore
}

// Service provides chat room and message business logic.
type Service struct {
	store  Store
	events EventPublisher
	log    *zerolog.Logger
}

// New creates a new chat service. events may be nil.
func New(st Store, events EventPublisher, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		store:  st,
		events: events,
		log:    logger,
	}
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, ev)
}

// profile loads a profile and converts a missing record into notFound.
func (s *Service) profile(ctx context.Context, id string, notFound error) (*store.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// room loads a room and converts a missing record into ErrRoomNotFound.
func (s *Service) room(ctx context.Context, id string) (*store.ChatRoom, error) {
	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}
