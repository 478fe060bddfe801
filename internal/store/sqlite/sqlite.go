package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/duochat-server/internal/store"
)

//go:embed schema.sql
var schema string

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; it also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Migrate applies the embedded schema. Safe to run repeatedly.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func (s *SQLiteStore) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ==== UserStore implementation ====

// CreateUserWithProfile inserts the user and the profile in one transaction.
func (s *SQLiteStore) CreateUserWithProfile(ctx context.Context, user *store.User, profile *store.Profile) error {
	now := s.now()
	user.CreatedAt = now
	profile.CreatedAt = now
	profile.UpdatedAt = now
	user.ProfileID = profile.ID
	profile.UserID = user.ID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, profile_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.ProfileID, user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user: %w", store.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, name, status, is_deactivated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, profile.ID, profile.UserID, profile.Name, profile.Status, profile.IsDeactivated, profile.CreatedAt, profile.UpdatedAt); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	return s.getUser(ctx, "username", username)
}

// GetUserByEmail retrieves a user by email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *SQLiteStore) getUser(ctx context.Context, column, value string) (*store.User, error) {
	// column is never user input
	query := `
		SELECT id, username, email, password_hash, profile_id, created_at
		FROM users
		WHERE ` + column + ` = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.ProfileID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// ==== ProfileStore implementation ====

// GetProfile retrieves a profile with its block and membership lists.
func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*store.Profile, error) {
	query := `
		SELECT id, user_id, name, status, is_deactivated, created_at, updated_at
		FROM profiles
		WHERE id = ?
	`
	var p store.Profile
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Status,
		&p.IsDeactivated,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}

	p.BlockedProfiles, err = s.queryIDs(ctx, `
		SELECT blocked_id FROM profile_blocks WHERE profile_id = ? ORDER BY rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query blocked profiles: %w", err)
	}

	p.ChatRooms, err = s.queryIDs(ctx, `
		SELECT room_id FROM profile_rooms WHERE profile_id = ? ORDER BY rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query profile rooms: %w", err)
	}

	return &p, nil
}

// ListProfiles lists every profile ordered by creation time, each with its
// block and membership lists.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]*store.Profile, error) {
	profiles, err := s.scanProfiles(ctx)
	if err != nil {
		return nil, err
	}

	// the single connection must be free before the list queries run
	blocked, err := s.queryIDsByProfile(ctx, `
		SELECT profile_id, blocked_id FROM profile_blocks ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query blocked profiles: %w", err)
	}
	rooms, err := s.queryIDsByProfile(ctx, `
		SELECT profile_id, room_id FROM profile_rooms ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query profile rooms: %w", err)
	}

	for _, p := range profiles {
		p.BlockedProfiles = append(make([]string, 0, len(blocked[p.ID])), blocked[p.ID]...)
		p.ChatRooms = append(make([]string, 0, len(rooms[p.ID])), rooms[p.ID]...)
	}
	return profiles, nil
}

func (s *SQLiteStore) scanProfiles(ctx context.Context) ([]*store.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, status, is_deactivated, created_at, updated_at
		FROM profiles
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*store.Profile, 0)
	for rows.Next() {
		var p store.Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Status, &p.IsDeactivated, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}

// queryIDsByProfile groups (profile_id, id) rows by profile, keeping row order.
func (s *SQLiteStore) queryIDsByProfile(ctx context.Context, query string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byProfile := make(map[string][]string)
	for rows.Next() {
		var profileID, id string
		if err := rows.Scan(&profileID, &id); err != nil {
			return nil, err
		}
		byProfile[profileID] = append(byProfile[profileID], id)
	}
	return byProfile, rows.Err()
}

// UpdateProfile sets the display name and status.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, profileID, name, status string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET name = ?, status = ?, updated_at = ? WHERE id = ?
	`, name, status, s.now(), profileID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("profile: %w", store.ErrNotFound)
	}
	return nil
}

// AddBlock records that profileID blocks blockedID.
func (s *SQLiteStore) AddBlock(ctx context.Context, profileID, blockedID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO profile_blocks (profile_id, blocked_id, created_at)
		VALUES (?, ?, ?)
	`, profileID, blockedID, s.now())
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

// RemoveBlock deletes the block record if present.
func (s *SQLiteStore) RemoveBlock(ctx context.Context, profileID, blockedID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM profile_blocks WHERE profile_id = ? AND blocked_id = ?
	`, profileID, blockedID)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

// SetDeactivated updates the activation flag.
func (s *SQLiteStore) SetDeactivated(ctx context.Context, profileID string, deactivated bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET is_deactivated = ?, updated_at = ? WHERE id = ?
	`, deactivated, s.now(), profileID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("profile: %w", store.ErrNotFound)
	}
	return nil
}

// ==== RoomStore implementation ====

// CreatePairRoom inserts the room and both membership rows in one transaction.
func (s *SQLiteStore) CreatePairRoom(ctx context.Context, room *store.ChatRoom) error {
	now := s.now()
	room.PairKey = store.PairKey(room.PairProfiles[0], room.PairProfiles[1])
	room.CreatedAt = now
	room.UpdatedAt = now
	room.Messages = []string{}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rooms (id, profile_a, profile_b, pair_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, room.ID, room.PairProfiles[0], room.PairProfiles[1], room.PairKey, room.CreatedAt, room.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert room: %w", store.ErrConflict)
		}
		return fmt.Errorf("insert room: %w", err)
	}

	memberQuery := `
		INSERT INTO profile_rooms (profile_id, room_id, joined_at)
		VALUES (?, ?, ?)
	`
	for _, profileID := range room.PairProfiles {
		if _, err := tx.ExecContext(ctx, memberQuery, profileID, room.ID, now); err != nil {
			return fmt.Errorf("add %s to room members: %w", profileID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetRoom retrieves a room with its ordered message ids.
func (s *SQLiteStore) GetRoom(ctx context.Context, id string) (*store.ChatRoom, error) {
	return s.getRoom(ctx, "id", id)
}

// GetRoomByPairKey retrieves the room for a pair key.
func (s *SQLiteStore) GetRoomByPairKey(ctx context.Context, pairKey string) (*store.ChatRoom, error) {
	return s.getRoom(ctx, "pair_key", pairKey)
}

func (s *SQLiteStore) getRoom(ctx context.Context, column, value string) (*store.ChatRoom, error) {
	query := `
		SELECT id, profile_a, profile_b, pair_key, created_at, updated_at
		FROM rooms
		WHERE ` + column + ` = ?
	`
	var room store.ChatRoom
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&room.ID,
		&room.PairProfiles[0],
		&room.PairProfiles[1],
		&room.PairKey,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	room.Messages, err = s.queryIDs(ctx, `
		SELECT id FROM messages WHERE room_id = ? ORDER BY seq
	`, room.ID)
	if err != nil {
		return nil, fmt.Errorf("query room messages: %w", err)
	}

	return &room, nil
}

// ListRoomsForProfile lists rooms in the profile's membership list, in join order.
func (s *SQLiteStore) ListRoomsForProfile(ctx context.Context, profileID string) ([]*store.ChatRoom, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.profile_a, r.profile_b, r.pair_key, r.created_at, r.updated_at
		FROM profile_rooms pr
		JOIN rooms r ON r.id = pr.room_id
		WHERE pr.profile_id = ?
		ORDER BY pr.rowid
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*store.ChatRoom, 0)
	for rows.Next() {
		var room store.ChatRoom
		if err := rows.Scan(&room.ID, &room.PairProfiles[0], &room.PairProfiles[1], &room.PairKey, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, &room)
	}
	return rooms, rows.Err()
}

// DeleteRoom removes memberships, messages and the room in one transaction.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profile_rooms WHERE room_id = ?`, id); err != nil {
		return fmt.Errorf("delete room members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE room_id = ?`, id); err != nil {
		return fmt.Errorf("delete room messages: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("room: %w", store.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

// AppendMessage inserts the message with the next sequence number of its room.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *store.Message) error {
	now := s.now()
	msg.CreatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE((SELECT MAX(seq) FROM messages WHERE room_id = r.id), 0) + 1
		FROM rooms r
		WHERE r.id = ?
	`, msg.RoomID).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("room: %w", store.ErrNotFound)
		}
		return fmt.Errorf("next message seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, room_id, seq, sender_id, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.RoomID, seq, msg.SenderID, msg.Text, msg.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE rooms SET updated_at = ? WHERE id = ?`, now, msg.RoomID); err != nil {
		return fmt.Errorf("touch room: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	msg.Seq = seq
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*store.Message, error) {
	var msg store.Message
	err := s.db.QueryRowContext(ctx, `
		SELECT id, room_id, seq, sender_id, body, created_at
		FROM messages
		WHERE id = ?
	`, id).Scan(&msg.ID, &msg.RoomID, &msg.Seq, &msg.SenderID, &msg.Text, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return &msg, nil
}

// ListMessages returns a room's messages in append order.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID string) ([]*store.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, seq, sender_id, body, created_at
		FROM messages
		WHERE room_id = ?
		ORDER BY seq
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.Seq, &msg.SenderID, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// DeleteMessage removes the message and touches its room.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	var roomID string
	if err := tx.QueryRowContext(ctx, `SELECT room_id FROM messages WHERE id = ?`, id).Scan(&roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("message: %w", store.ErrNotFound)
		}
		return fmt.Errorf("query message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE rooms SET updated_at = ? WHERE id = ?`, s.now(), roomID); err != nil {
		return fmt.Errorf("touch room: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
