package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/duochat-server/internal/proto"
)

type rawOutbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startTestServer(t *testing.T, env *testEnv) string {
	t.Helper()

	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)
	return ts.URL
}

func dialWS(ctx context.Context, t *testing.T, baseURL, token string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/ws"
	if token != "" {
		wsURL += "?token=" + token
	}
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendFrame(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}))
}

func readFrame(ctx context.Context, t *testing.T, conn *websocket.Conn) rawOutbound {
	t.Helper()

	var out rawOutbound
	require.NoError(t, wsjson.Read(ctx, conn, &out))
	return out
}

func joinWS(ctx context.Context, t *testing.T, conn *websocket.Conn, roomID string) {
	t.Helper()

	sendFrame(ctx, t, conn, proto.InboundTypeJoin, proto.JoinData{RoomID: roomID})
	out := readFrame(ctx, t, conn)
	require.Equal(t, proto.OutboundTypeJoined, out.Type)

	var joined proto.JoinedData
	require.NoError(t, json.Unmarshal(out.Data, &joined))
	require.Equal(t, roomID, joined.RoomID)
}

func TestWebSocketDeliversCreatedMessages(t *testing.T) {
	env := newTestEnv(t)
	baseURL := startTestServer(t, env)
	alice := env.register(t, "alice")
	bob := env.register(t, "bobby")
	roomID := env.createRoom(t, alice, bob.profileID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(ctx, t, baseURL, alice.token)
	connB := dialWS(ctx, t, baseURL, bob.token)
	// never joins
	connC := dialWS(ctx, t, baseURL, "")

	joinWS(ctx, t, connA, roomID)
	joinWS(ctx, t, connB, roomID)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/message", alice.token,
		map[string]string{"roomId": roomID, "messageText": "hi"}, nil))

	for _, conn := range []*websocket.Conn{connA, connB} {
		out := readFrame(ctx, t, conn)
		require.Equal(t, proto.OutboundTypeReceive, out.Type)

		var data proto.MessageData
		require.NoError(t, json.Unmarshal(out.Data, &data))
		require.Equal(t, "hi", data.MessageObject.Message)
		require.Equal(t, roomID, data.ChatRoom.ID)
		require.Len(t, data.ChatRoom.Messages, 1)
	}

	quiet, quietCancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer quietCancel()
	var out rawOutbound
	require.Error(t, wsjson.Read(quiet, connC, &out))
}

func TestWebSocketRelaysClientMessages(t *testing.T) {
	env := newTestEnv(t)
	baseURL := startTestServer(t, env)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(ctx, t, baseURL, "")
	connB := dialWS(ctx, t, baseURL, "")
	joinWS(ctx, t, connB, "room-1")

	sendFrame(ctx, t, connA, proto.InboundTypeSend, proto.MessageData{
		MessageObject: proto.MessageObject{ID: "m1", Message: "hello", Sender: "p1", ChatRoom: "room-1"},
		ChatRoom:      proto.ChatRoom{ID: "room-1", PairProfiles: []string{"p1", "p2"}, Messages: []string{"m1"}},
	})

	out := readFrame(ctx, t, connB)
	require.Equal(t, proto.OutboundTypeReceive, out.Type)
	var data proto.MessageData
	require.NoError(t, json.Unmarshal(out.Data, &data))
	require.Equal(t, "hello", data.MessageObject.Message)
	require.Equal(t, []string{"p1", "p2"}, data.ChatRoom.PairProfiles)

	sendFrame(ctx, t, connB, proto.InboundTypeJoin, proto.JoinData{})
	errFrame := readFrame(ctx, t, connB)
	require.Equal(t, proto.OutboundTypeError, errFrame.Type)

	// leaving stops delivery; the follow-up join confirms the leave was applied
	sendFrame(ctx, t, connB, proto.InboundTypeLeave, struct{}{})
	joinWS(ctx, t, connB, "room-2")

	sendFrame(ctx, t, connA, proto.InboundTypeSend, proto.MessageData{ChatRoom: proto.ChatRoom{ID: "room-1"}})
	quiet, quietCancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer quietCancel()
	require.Error(t, wsjson.Read(quiet, connB, &out))
}

func TestWebSocketUnknownFrameType(t *testing.T) {
	env := newTestEnv(t)
	baseURL := startTestServer(t, env)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, baseURL, "")
	sendFrame(ctx, t, conn, "hello", struct{}{})

	out := readFrame(ctx, t, conn)
	require.Equal(t, proto.OutboundTypeError, out.Type)
	var e proto.Error
	require.NoError(t, json.Unmarshal(out.Data, &e))
	require.Equal(t, "invalid_message", e.Code)
}

func TestWebSocketRejectsInvalidToken(t *testing.T) {
	env := newTestEnv(t)
	baseURL := startTestServer(t, env)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/ws?token=invalid"
	_, resp, err := websocket.Dial(ctx, wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}

func TestWebSocketUpgradesThroughServerHandler(t *testing.T) {
	env := newTestEnv(t)
	logger := zerolog.Nop()
	srv := NewServer(env.deps, &env.cfg, &logger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, ts.URL, "")
	sendFrame(ctx, t, conn, "bogus", struct{}{})

	out := readFrame(ctx, t, conn)
	require.Equal(t, proto.OutboundTypeError, out.Type)

	// REST routes still reach gin on the same handler
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
