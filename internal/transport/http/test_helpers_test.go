package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/duochat-server/internal/auth"
	"github.com/vovakirdan/duochat-server/internal/config"
	"github.com/vovakirdan/duochat-server/internal/core"
	"github.com/vovakirdan/duochat-server/internal/metrics"
	"github.com/vovakirdan/duochat-server/internal/service/chat"
	"github.com/vovakirdan/duochat-server/internal/service/profiles"
	"github.com/vovakirdan/duochat-server/internal/store/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv is a fully wired server backed by an in-memory SQLite store.
type testEnv struct {
	auth    *auth.Service
	metrics *metrics.Metrics
	handler http.Handler
	deps    Deps
	cfg     config.Config
}

type testUser struct {
	token     string
	profileID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Default()
	cfg.JWTSecret = "test-secret"

	disabledLogger := zerolog.New(nil)
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      time.Hour,
	})

	m := metrics.New()
	hub := core.NewHub(core.Options{Observer: m, Logger: &disabledLogger})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	chatService := chat.New(st, chat.Publishers{core.NewChatPublisher(hub), m}, &disabledLogger)

	deps := Deps{
		Hub:      hub,
		Auth:     authService,
		Profiles: profiles.New(st),
		Chat:     chatService,
		Metrics:  m,
	}
	handler := NewHandler(deps, &cfg, &disabledLogger)

	return &testEnv{auth: authService, metrics: m, handler: handler, deps: deps, cfg: cfg}
}

func (e *testEnv) register(t *testing.T, username string) testUser {
	t.Helper()

	token, err := e.auth.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	claims, err := e.auth.ValidateToken(token)
	require.NoError(t, err)
	return testUser{token: token, profileID: claims.ProfileID}
}

// do runs a request against the handler and decodes the JSON body into out
// when out is non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	e.handler.ServeHTTP(resp, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), out), resp.Body.String())
	}
	return resp.Code
}

func (e *testEnv) createRoom(t *testing.T, owner testUser, target string) string {
	t.Helper()

	var room struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/chat-room", owner.token, map[string]string{"id": target}, &room))
	return room.ID
}

func newRecorderRequest(method, path string) (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(method, path, nil), httptest.NewRecorder()
}
