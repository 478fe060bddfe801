package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vovakirdan/duochat-server/internal/service/errs"
	"github.com/vovakirdan/duochat-server/internal/store"
)

// Common errors for profile operations.
var (
	ErrProfileNotFound = errs.New(errs.KindNotFound, "profile not found")
	ErrCannotBlockSelf = errs.New(errs.KindValidation, "cannot block yourself")
	ErrNotBlocked      = errs.New(errs.KindNotFound, "profile is not blocked")
	ErrNotOwner        = errs.New(errs.KindForbidden, "profile belongs to another user")
	ErrInvalidName     = errs.New(errs.KindInvalidInput, "name must be 3 to 25 characters")
	ErrInvalidStatus   = errs.New(errs.KindInvalidInput, "status must be 5 to 100 characters")
)

// UpdateInput carries profile edits. Blank fields keep the current value.
type UpdateInput struct {
	Name   string
	Status string
}

// Service provides profile lookup, block management and activation state.
type Service struct {
	store store.ProfileStore
}

// New creates a new profile service.
func New(st store.ProfileStore) *Service {
	return &Service{store: st}
}

// Get returns a profile with its block and membership lists.
func (s *Service) Get(ctx context.Context, id string) (*store.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// List returns every profile.
func (s *Service) List(ctx context.Context) ([]*store.Profile, error) {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Exists reports whether a profile with the given id exists.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrProfileNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Block makes profileID block targetID and returns the updated profile.
func (s *Service) Block(ctx context.Context, profileID, targetID string) (*store.Profile, error) {
	if profileID == targetID {
		return nil, ErrCannotBlockSelf
	}

	if _, err := s.Get(ctx, targetID); err != nil {
		return nil, err
	}

	if err := s.store.AddBlock(ctx, profileID, targetID); err != nil {
		return nil, fmt.Errorf("block profile: %w", err)
	}
	return s.Get(ctx, profileID)
}

// Unblock removes a block previously placed by profileID.
func (s *Service) Unblock(ctx context.Context, profileID, targetID string) (*store.Profile, error) {
	p, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !p.Blocks(targetID) {
		return nil, ErrNotBlocked
	}

	if err := s.store.RemoveBlock(ctx, profileID, targetID); err != nil {
		return nil, fmt.Errorf("unblock profile: %w", err)
	}
	return s.Get(ctx, profileID)
}

// ToggleActivation flips the deactivated flag of the caller's own profile.
func (s *Service) ToggleActivation(ctx context.Context, callerID, profileID string) (*store.Profile, error) {
	p, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if callerID != profileID {
		return nil, ErrNotOwner
	}

	if err := s.store.SetDeactivated(ctx, profileID, !p.IsDeactivated); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("toggle activation: %w", err)
	}
	return s.Get(ctx, profileID)
}

// Update edits the caller's own name and status.
func (s *Service) Update(ctx context.Context, callerID, profileID string, in UpdateInput) (*store.Profile, error) {
	p, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if callerID != profileID {
		return nil, ErrNotOwner
	}

	name, status := p.Name, p.Status
	if v := strings.TrimSpace(in.Name); v != "" {
		if !between(v, 3, 25) {
			return nil, ErrInvalidName
		}
		name = v
	}
	if v := strings.TrimSpace(in.Status); v != "" {
		if !between(v, 5, 100) {
			return nil, ErrInvalidStatus
		}
		status = v
	}

	if err := s.store.UpdateProfile(ctx, profileID, name, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.Get(ctx, profileID)
}

func between(s string, lower, upper int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lower && n <= upper
}
