package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	require.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	require.Equal(t, "a:b", PairKey("b", "a"))
	require.NotEqual(t, PairKey("a", "b"), PairKey("a", "c"))
}

func TestCounterpartyChecksBothSlots(t *testing.T) {
	room := &ChatRoom{PairProfiles: [2]string{"alice", "bob"}}

	other, ok := room.Counterparty("alice")
	require.True(t, ok)
	require.Equal(t, "bob", other)

	other, ok = room.Counterparty("bob")
	require.True(t, ok)
	require.Equal(t, "alice", other)

	_, ok = room.Counterparty("carol")
	require.False(t, ok)
	require.False(t, room.HasParticipant("carol"))
}

func TestEitherBlocks(t *testing.T) {
	alice := &Profile{ID: "alice"}
	bob := &Profile{ID: "bob", BlockedProfiles: []string{"alice"}}

	require.True(t, EitherBlocks(alice, bob))
	require.True(t, EitherBlocks(bob, alice))

	bob.BlockedProfiles = nil
	require.False(t, EitherBlocks(alice, bob))
}
