package profiles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/duochat-server/internal/store"
	"github.com/vovakirdan/duochat-server/internal/store/sqlite"
	"github.com/vovakirdan/duochat-server/internal/utils"
)

func newTestService(t *testing.T) (*Service, *sqlite.SQLiteStore) {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st), st
}

func seed(t *testing.T, st *sqlite.SQLiteStore, name string) string {
	t.Helper()

	user := &store.User{ID: utils.NewID(), Username: name, Email: name + "@example.com", PasswordHash: "x"}
	profile := &store.Profile{ID: utils.NewID(), Name: name}
	require.NoError(t, st.CreateUserWithProfile(context.Background(), user, profile))
	return profile.ID
}

func TestBlockAndUnblock(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice, bob := seed(t, st, "alice"), seed(t, st, "bob")

	_, err := svc.Block(ctx, alice, alice)
	require.ErrorIs(t, err, ErrCannotBlockSelf)

	_, err = svc.Block(ctx, alice, utils.NewID())
	require.ErrorIs(t, err, ErrProfileNotFound)

	p, err := svc.Block(ctx, alice, bob)
	require.NoError(t, err)
	require.Equal(t, []string{bob}, p.BlockedProfiles)

	// blocking twice is harmless
	p, err = svc.Block(ctx, alice, bob)
	require.NoError(t, err)
	require.Len(t, p.BlockedProfiles, 1)

	_, err = svc.Unblock(ctx, bob, alice)
	require.ErrorIs(t, err, ErrNotBlocked)

	p, err = svc.Unblock(ctx, alice, bob)
	require.NoError(t, err)
	require.Empty(t, p.BlockedProfiles)
}

func TestToggleActivation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice, bob := seed(t, st, "alice"), seed(t, st, "bob")

	_, err := svc.ToggleActivation(ctx, bob, alice)
	require.ErrorIs(t, err, ErrNotOwner)

	p, err := svc.ToggleActivation(ctx, alice, alice)
	require.NoError(t, err)
	require.True(t, p.IsDeactivated)

	p, err = svc.ToggleActivation(ctx, alice, alice)
	require.NoError(t, err)
	require.False(t, p.IsDeactivated)
}

func TestGetListExists(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seed(t, st, "alice")
	seed(t, st, "bob")

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	ok, err := svc.Exists(ctx, alice)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Exists(ctx, utils.NewID())
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.Get(ctx, utils.NewID())
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestUpdate(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice, bob := seed(t, st, "alice"), seed(t, st, "bob")

	_, err := svc.Update(ctx, bob, alice, UpdateInput{Name: "Mallory"})
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.Update(ctx, alice, utils.NewID(), UpdateInput{Name: "Ghost"})
	require.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.Update(ctx, alice, alice, UpdateInput{Name: "Al"})
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.Update(ctx, alice, alice, UpdateInput{Status: "hey"})
	require.ErrorIs(t, err, ErrInvalidStatus)

	p, err := svc.Update(ctx, alice, alice, UpdateInput{Status: "  out for lunch  "})
	require.NoError(t, err)
	require.Equal(t, "alice", p.Name)
	require.Equal(t, "out for lunch", p.Status)

	// blank fields keep what is stored
	p, err = svc.Update(ctx, alice, alice, UpdateInput{Name: "Alice Liddell", Status: " "})
	require.NoError(t, err)
	require.Equal(t, "Alice Liddell", p.Name)
	require.Equal(t, "out for lunch", p.Status)
}
