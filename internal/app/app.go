package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/duochat-server/internal/auth"
	"github.com/vovakirdan/duochat-server/internal/config"
	"github.com/vovakirdan/duochat-server/internal/core"
	"github.com/vovakirdan/duochat-server/internal/metrics"
	"github.com/vovakirdan/duochat-server/internal/notify"
	"github.com/vovakirdan/duochat-server/internal/service/chat"
	"github.com/vovakirdan/duochat-server/internal/service/profiles"
	"github.com/vovakirdan/duochat-server/internal/store"
	"github.com/vovakirdan/duochat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/duochat-server/internal/transport/http"
)

// App wires together storage, services, relay and transport.
type App struct {
	server          *http.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	nats            *nats.Conn
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. ctx bounds
// the initial NATS connection attempts.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	hubOpts := core.Options{VerifyMembership: cfg.RelayVerifyMembership, Logger: logger}
	if m != nil {
		hubOpts.Observer = m
	}
	a.hub = core.NewHub(hubOpts)

	publishers := chat.Publishers{core.NewChatPublisher(a.hub)}
	if m != nil {
		publishers = append(publishers, m)
	}
	if cfg.NATSURL != "" {
		nc, err := notify.Connect(ctx, cfg.NATSURL, logger)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("init nats: %w", err)
		}
		a.nats = nc
		publishers = append(publishers, notify.New(nc, cfg.NATSSubjectPrefix, logger))
		logger.Info().Str("url", cfg.NATSURL).Str("prefix", cfg.NATSSubjectPrefix).Msg("nats notifier enabled")
	}

	chatService := chat.New(st, publishers, logger)
	if cfg.RelayVerifyMembership {
		// the chat service is built after the hub it publishes to
		a.hub.SetVerifier(chatService)
	}

	gin.SetMode(gin.ReleaseMode)
	a.server = transporthttp.NewServer(transporthttp.Deps{
		Hub:      a.hub,
		Auth:     authService,
		Profiles: profiles.New(st),
		Chat:     chatService,
		Metrics:  m,
	}, cfg, logger)

	return a, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup drains NATS and closes the store.
func (a *App) cleanup() {
	if a.nats != nil {
		if err := a.nats.Drain(); err != nil {
			a.log.Warn().Err(err).Msg("failed to drain nats")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
