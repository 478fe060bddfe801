package core

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/duochat-server/internal/service/chat"
	"github.com/vovakirdan/duochat-server/internal/store"
)

func TestHubPublishReachesEveryJoinedClient(t *testing.T) {
	hub := startHub(t, Options{})

	alice := NewClient("a", "alice", 0)
	bob := NewClient("b", "bob", 0)
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	joined(t, hub, alice, "room-1")
	joined(t, hub, bob, "room-1")

	msg := Message{ID: "m1", RoomID: "room-1", SenderID: "alice", Text: "hi"}
	hub.Publish(context.Background(), "room-1", msg, RoomSnapshot{ID: "room-1", Messages: []string{"m1"}})

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventReceiveMessage)
		if ev.Message.Text != "hi" || ev.Room != "room-1" || ev.Snapshot.ID != "room-1" {
			t.Fatalf("unexpected event for %s: %+v", c.ID, ev)
		}
	}
}

func TestHubSkipsClientsThatLeftOrNeverJoined(t *testing.T) {
	hub := startHub(t, Options{})

	alice := NewClient("a", "alice", 0)
	bob := NewClient("b", "bob", 0)
	carol := NewClient("c", "carol", 0)
	for _, c := range []*Client{alice, bob, carol} {
		hub.RegisterClient(c)
	}

	joined(t, hub, alice, "room-1")
	joined(t, hub, bob, "room-1")
	bob.Commands <- &Command{Kind: CommandLeaveRoom}
	// leaving twice is harmless
	bob.Commands <- &Command{Kind: CommandLeaveRoom}
	// a follow-up join on another room proves the leaves were processed
	joined(t, hub, bob, "room-2")

	hub.Publish(context.Background(), "room-1", Message{ID: "m1", Text: "hi"}, RoomSnapshot{ID: "room-1"})

	mustEvent(t, alice.Events, EventReceiveMessage)
	mustNoEvent(t, bob.Events, EventReceiveMessage, 100*time.Millisecond)
	mustNoEvent(t, carol.Events, EventReceiveMessage, 100*time.Millisecond)
}

func TestHubJoinReplacesPreviousRoom(t *testing.T) {
	hub := startHub(t, Options{})

	alice := NewClient("a", "alice", 0)
	hub.RegisterClient(alice)

	joined(t, hub, alice, "room-1")
	joined(t, hub, alice, "room-1")
	joined(t, hub, alice, "room-2")

	hub.Publish(context.Background(), "room-1", Message{ID: "old"}, RoomSnapshot{ID: "room-1"})
	hub.Publish(context.Background(), "room-2", Message{ID: "new"}, RoomSnapshot{ID: "room-2"})

	ev := mustEvent(t, alice.Events, EventReceiveMessage)
	if ev.Message.ID != "new" {
		t.Fatalf("expected delivery from room-2 only, got %+v", ev)
	}
	mustNoEvent(t, alice.Events, EventReceiveMessage, 100*time.Millisecond)
}

func TestHubRelaysClientMessages(t *testing.T) {
	hub := startHub(t, Options{})

	alice := NewClient("a", "alice", 0)
	bob := NewClient("b", "bob", 0)
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	joined(t, hub, bob, "room-1")

	alice.Commands <- &Command{
		Kind:     CommandRelayMessage,
		Room:     "room-1",
		Message:  Message{ID: "m1", Text: "hello"},
		Snapshot: RoomSnapshot{ID: "room-1"},
	}

	ev := mustEvent(t, bob.Events, EventReceiveMessage)
	if ev.Message.Text != "hello" || ev.Snapshot.ID != "room-1" {
		t.Fatalf("unexpected relay event: %+v", ev)
	}

	alice.Commands <- &Command{Kind: CommandRelayMessage}
	errEv := mustEvent(t, alice.Events, EventError)
	if errEv.Error == nil || errEv.Error.Code != ErrCodeBadRequest {
		t.Fatalf("expected bad_request, got %+v", errEv)
	}
}

func TestHubVerifiesMembershipWhenEnabled(t *testing.T) {
	hub := startHub(t, Options{
		Verifier:         fakeVerifier{members: map[string][]string{"room-1": {"alice"}}},
		VerifyMembership: true,
	})

	alice := NewClient("a", "alice", 0)
	mallory := NewClient("m", "mallory", 0)
	anon := NewClient("x", "", 0)
	for _, c := range []*Client{alice, mallory, anon} {
		hub.RegisterClient(c)
	}

	joined(t, hub, alice, "room-1")

	for _, c := range []*Client{mallory, anon} {
		c.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
		ev := mustEvent(t, c.Events, EventError)
		if ev.Error == nil || ev.Error.Code != ErrCodeNotParticipant {
			t.Fatalf("expected not_participant for %s, got %+v", c.ID, ev)
		}
	}
}

func TestHubUnregisterClosesEvents(t *testing.T) {
	obs := &countingObserver{}
	hub := startHub(t, Options{Observer: obs})

	alice := NewClient("a", "alice", 0)
	hub.RegisterClient(alice)
	joined(t, hub, alice, "room-1")

	hub.UnregisterClient(alice)
	hub.UnregisterClient(alice)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-alice.Events:
			if !ok {
				reg, unreg, _ := obs.snapshot()
				if reg != 1 || unreg != 1 {
					t.Fatalf("observer saw %d/%d, want 1/1", reg, unreg)
				}
				return
			}
		case <-deadline:
			t.Fatal("events channel was not closed")
		}
	}
}

func TestHubDropsEventsForSlowConsumers(t *testing.T) {
	obs := &countingObserver{}
	hub := startHub(t, Options{Observer: obs})

	slow := NewClient("s", "slow", 1)
	hub.RegisterClient(slow)
	slow.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	// the joined event occupies the only buffer slot
	for len(slow.Events) == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(context.Background(), "room-1", Message{ID: "m1"}, RoomSnapshot{ID: "room-1"})
	hub.Publish(context.Background(), "room-1", Message{ID: "m2"}, RoomSnapshot{ID: "room-1"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, dropped := obs.snapshot(); dropped == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	_, _, dropped := obs.snapshot()
	t.Fatalf("dropped = %d, want 2", dropped)
}

func TestChatPublisherRelaysCreatedMessages(t *testing.T) {
	hub := startHub(t, Options{})
	pub := NewChatPublisher(hub)

	bob := NewClient("b", "bob", 0)
	hub.RegisterClient(bob)
	joined(t, hub, bob, "room-1")

	room := &store.ChatRoom{ID: "room-1", PairProfiles: [2]string{"alice", "bob"}, Messages: []string{"m1"}}
	pub.Publish(context.Background(), chat.Event{Kind: chat.EventRoomCreated, Room: room})
	pub.Publish(context.Background(), chat.Event{
		Kind:    chat.EventMessageCreated,
		Room:    room,
		Message: &store.Message{ID: "m1", RoomID: "room-1", SenderID: "alice", Text: "hi", Seq: 1},
	})

	ev := mustEvent(t, bob.Events, EventReceiveMessage)
	if ev.Message.ID != "m1" || ev.Message.Seq != 1 || len(ev.Snapshot.Messages) != 1 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	mustNoEvent(t, bob.Events, EventReceiveMessage, 100*time.Millisecond)
}
