package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent fails if an event of the given kind shows up within wait.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, wait time.Duration) {
	t.Helper()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event %v: %+v", kind, ev)
			}
		case <-timer.C:
			return
		}
	}
}

func startHub(t *testing.T, opts Options) *Hub {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	hub := NewHub(opts)
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func joined(t *testing.T, hub *Hub, c *Client, room string) {
	t.Helper()

	c.Commands <- &Command{Kind: CommandJoinRoom, Room: room}
	ev := mustEvent(t, c.Events, EventJoined)
	if ev.Room != room {
		t.Fatalf("joined %q, want %q", ev.Room, room)
	}
}

type fakeVerifier struct {
	// members maps room to allowed profile ids.
	members map[string][]string
}

func (f fakeVerifier) IsParticipant(_ context.Context, profileID, roomID string) (bool, error) {
	for _, id := range f.members[roomID] {
		if id == profileID {
			return true, nil
		}
	}
	return false, nil
}

type countingObserver struct {
	mu           sync.Mutex
	registered   int
	unregistered int
	dropped      int
}

func (o *countingObserver) ClientRegistered() {
	o.mu.Lock()
	o.registered++
	o.mu.Unlock()
}

func (o *countingObserver) ClientUnregistered() {
	o.mu.Lock()
	o.unregistered++
	o.mu.Unlock()
}

func (o *countingObserver) DeliveryDropped(n int) {
	o.mu.Lock()
	o.dropped += n
	o.mu.Unlock()
}

func (o *countingObserver) snapshot() (int, int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.registered, o.unregistered, o.dropped
}
