package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/duochat-server/internal/service/chat"
	"github.com/vovakirdan/duochat-server/internal/store"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []published
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return nil
}

func TestNotifierPublishesOneMessagePerEvent(t *testing.T) {
	fc := &fakeConn{}
	n := New(fc, "duochat", nil)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	n.now = func() time.Time { return at }

	room := &store.ChatRoom{ID: "r1", PairProfiles: [2]string{"p1", "p2"}}
	msg := &store.Message{ID: "m1", RoomID: "r1", SenderID: "p1", Text: "hi", Seq: 1}

	ctx := context.Background()
	n.Publish(ctx, chat.Event{Kind: chat.EventRoomCreated, Room: room})
	n.Publish(ctx, chat.Event{Kind: chat.EventMessageCreated, Room: room, Message: msg})

	require.Len(t, fc.msgs, 2)
	require.Equal(t, "duochat.room.created", fc.msgs[0].subject)
	require.Equal(t, "duochat.message.created", fc.msgs[1].subject)

	var p Payload
	require.NoError(t, json.Unmarshal(fc.msgs[1].data, &p))
	require.Equal(t, "message.created", p.Type)
	require.Equal(t, "r1", p.RoomID)
	require.Equal(t, []string{"p1", "p2"}, p.PairProfiles)
	require.NotNil(t, p.Message)
	require.Equal(t, "hi", p.Message.Text)
	require.True(t, p.At.Equal(at))

	var roomPayload map[string]any
	require.NoError(t, json.Unmarshal(fc.msgs[0].data, &roomPayload))
	require.NotContains(t, roomPayload, "message")
}

func TestNotifierSwallowsPublishErrors(t *testing.T) {
	fc := &fakeConn{err: errors.New("nats: connection closed")}
	n := New(fc, "duochat", nil)

	n.Publish(context.Background(), chat.Event{Kind: chat.EventRoomDeleted, Room: &store.ChatRoom{ID: "r1"}})
	n.Publish(context.Background(), chat.Event{Kind: chat.EventRoomDeleted})
	require.Empty(t, fc.msgs)
}
