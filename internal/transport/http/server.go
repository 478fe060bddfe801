package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/duochat-server/internal/auth"
	"github.com/vovakirdan/duochat-server/internal/config"
	"github.com/vovakirdan/duochat-server/internal/core"
	"github.com/vovakirdan/duochat-server/internal/metrics"
	"github.com/vovakirdan/duochat-server/internal/service/chat"
	"github.com/vovakirdan/duochat-server/internal/service/profiles"
)

// Deps groups the services the HTTP layer serves.
type Deps struct {
	Hub      *core.Hub
	Auth     *auth.Service
	Profiles *profiles.Service
	Chat     *chat.Service
	// Metrics is optional. When nil /metrics is not mounted.
	Metrics *metrics.Metrics
}

// NewServer builds an HTTP server with REST, WebSocket and health routes.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(deps, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler routes /ws straight to the WebSocket handler and everything else
// to the gin engine. gin's response writer refuses the hijack once the
// upgrade has written its header, so /ws stays outside it.
func NewHandler(deps Deps, cfg *config.Config, logger *zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", NewWSHandler(deps.Hub, deps.Auth, cfg, logger))
	mux.Handle("/", NewRouter(deps, logger))
	return mux
}

// NewRouter builds the gin engine serving the REST API, /health and /metrics.
func NewRouter(deps Deps, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	if deps.Metrics != nil {
		router.Use(MetricsMiddleware(deps.Metrics))
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/health", healthHandler)

	authHandlers := NewAuthHandlers(deps.Auth, logger)
	profileHandlers := NewProfileHandlers(deps.Profiles, deps.Chat, logger)
	chatHandlers := NewChatHandlers(deps.Chat, logger)

	api := router.Group("/api")
	{
		api.POST("/auth/register", authHandlers.Register)
		api.POST("/auth/login", authHandlers.Login)
		api.GET("/user/duplicate-username/:username", authHandlers.CheckUsername)
		api.GET("/user/duplicate-email/:email", authHandlers.CheckEmail)

		protected := api.Group("")
		protected.Use(AuthMiddleware(deps.Auth, logger))
		{
			protected.GET("/profile", profileHandlers.List)
			protected.GET("/profile/:id", profileHandlers.Get)
			protected.PUT("/profile/:id", profileHandlers.Update)
			protected.GET("/profile/:id/chat-rooms", profileHandlers.ChatRooms)
			protected.PATCH("/profile/:id/activation", profileHandlers.ToggleActivation)
			protected.POST("/profile/block/:id", profileHandlers.Block)
			protected.DELETE("/profile/block/:id", profileHandlers.Unblock)

			protected.POST("/chat-room", chatHandlers.CreateRoom)
			protected.DELETE("/chat-room/:roomId", chatHandlers.DeleteRoom)
			protected.GET("/chat-room/messages/:roomId", chatHandlers.RoomMessages)

			protected.POST("/message", chatHandlers.SendMessage)
			protected.DELETE("/message/:messageId", chatHandlers.DeleteMessage)
		}
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// MetricsMiddleware records request durations by route template.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), start)
	}
}
