package store

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record conflicts with an existing one")
)

// User is an account able to log in. Every user owns exactly one profile.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	ProfileID    string
	CreatedAt    time.Time
}

// Profile is the public identity taking part in rooms.
type Profile struct {
	ID            string
	UserID        string
	Name          string
	Status        string
	IsDeactivated bool
	// BlockedProfiles lists profiles this one has blocked.
	BlockedProfiles []string
	// ChatRooms is the membership list, in join order.
	ChatRooms []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Blocks reports whether p has blocked the given profile.
func (p *Profile) Blocks(profileID string) bool {
	return lo.Contains(p.BlockedProfiles, profileID)
}

// HasRoom reports whether roomID is in p's membership list.
func (p *Profile) HasRoom(roomID string) bool {
	return lo.Contains(p.ChatRooms, roomID)
}

// EitherBlocks reports whether a blocks b or b blocks a.
func EitherBlocks(a, b *Profile) bool {
	return a.Blocks(b.ID) || b.Blocks(a.ID)
}

// ChatRoom pairs exactly two profiles.
type ChatRoom struct {
	ID string
	// PairProfiles holds the creator first, then the target.
	PairProfiles [2]string
	PairKey      string
	// Messages holds message ids in append order.
	Messages  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasParticipant reports whether profileID occupies either slot of the pair.
func (r *ChatRoom) HasParticipant(profileID string) bool {
	return r.PairProfiles[0] == profileID || r.PairProfiles[1] == profileID
}

// Counterparty returns the other participant. ok is false when profileID is
// not a participant.
func (r *ChatRoom) Counterparty(profileID string) (string, bool) {
	switch profileID {
	case r.PairProfiles[0]:
		return r.PairProfiles[1], true
	case r.PairProfiles[1]:
		return r.PairProfiles[0], true
	default:
		return "", false
	}
}

// PairKey returns the order-independent key identifying the pair (a, b).
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// Message is a single chat message inside a room.
type Message struct {
	ID       string
	RoomID   string
	SenderID string
	Text     string
	// Seq is the message position inside its room, assigned on append.
	Seq       int64
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUserWithProfile stores a user and its profile atomically.
	CreateUserWithProfile(ctx context.Context, user *User, profile *Profile) error

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// ProfileStore handles profile persistence, block lists and activation state.
type ProfileStore interface {
	// GetProfile retrieves a profile with its block and membership lists.
	GetProfile(ctx context.Context, id string) (*Profile, error)

	// ListProfiles lists every profile with its block and membership lists.
	ListProfiles(ctx context.Context) ([]*Profile, error)

	// UpdateProfile sets the display name and status.
	UpdateProfile(ctx context.Context, profileID, name, status string) error

	// AddBlock records that profileID blocks blockedID. Idempotent.
	AddBlock(ctx context.Context, profileID, blockedID string) error

	// RemoveBlock deletes the block record. Idempotent.
	RemoveBlock(ctx context.Context, profileID, blockedID string) error

	// SetDeactivated updates the activation flag.
	SetDeactivated(ctx context.Context, profileID string, deactivated bool) error
}

// RoomStore handles room persistence and profile membership.
type RoomStore interface {
	// CreatePairRoom stores the room and appends it to both profiles'
	// membership lists in one transaction. Returns ErrConflict when a room
	// with the same pair key exists.
	CreatePairRoom(ctx context.Context, room *ChatRoom) error

	// GetRoom retrieves a room with its ordered message ids.
	GetRoom(ctx context.Context, id string) (*ChatRoom, error)

	// GetRoomByPairKey retrieves the live room for a pair key.
	GetRoomByPairKey(ctx context.Context, pairKey string) (*ChatRoom, error)

	// ListRoomsForProfile lists rooms in the profile's membership list.
	// Messages is not populated.
	ListRoomsForProfile(ctx context.Context, profileID string) ([]*ChatRoom, error)

	// DeleteRoom removes the room, its memberships and its messages in one
	// transaction.
	DeleteRoom(ctx context.Context, id string) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage persists the message as the last one of its room and sets
	// msg.Seq. Returns ErrNotFound when the room does not exist.
	AppendMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id string) (*Message, error)

	// ListMessages returns a room's messages in append order.
	ListMessages(ctx context.Context, roomID string) ([]*Message, error)

	// DeleteMessage removes the message from its room.
	DeleteMessage(ctx context.Context, id string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ProfileStore
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
