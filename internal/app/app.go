// Package app wires the realtime chat server together and owns startup
// ordering: the cross-instance relay must be live before the first
// connection is accepted, and an unreachable backbone is fatal.
package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sochat/realtime-server/internal/auth"
	"github.com/sochat/realtime-server/internal/chat"
	"github.com/sochat/realtime-server/internal/config"
	"github.com/sochat/realtime-server/internal/core"
	"github.com/sochat/realtime-server/internal/eventlog"
	"github.com/sochat/realtime-server/internal/membership"
	"github.com/sochat/realtime-server/internal/presence"
	"github.com/sochat/realtime-server/internal/pubsub"
	"github.com/sochat/realtime-server/internal/store"
	"github.com/sochat/realtime-server/internal/store/sqlite"
	transporthttp "github.com/sochat/realtime-server/internal/transport/http"
)

// App wires together core, services and transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration

	store store.Store
	rdb   *redis.Client
	nc    *nats.Conn
	relay interface{ Close() error }

	log *zerolog.Logger
}

// New constructs the application. Returns an error (and the process
// must exit non-zero) when the pub/sub backbone cannot be reached;
// Redis being down only degrades cache and presence.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	verifier := auth.NewVerifier(auth.Config{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// Degraded performance, not degraded correctness: membership
		// checks fall through to the authority, presence fails silent.
		logger.Warn().Err(err).Str("redis_addr", cfg.RedisAddr).
			Msg("redis unreachable at boot, cache and presence degraded")
	} else {
		logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("redis connected")
	}
	pingCancel()

	hub := core.NewHub(logger)

	var (
		nc     *nats.Conn
		relay  interface{ Close() error }
		evtLog eventlog.Publisher
	)
	if cfg.SingleNode {
		loopback := pubsub.NewLoopback(hub.Deliver)
		hub.BindRelay(loopback)
		relay = loopback
		evtLog = eventlog.NewNop(logger)
		logger.Info().Msg("single-node mode: loopback relay, event log disabled")
	} else {
		nc, err = nats.Connect(cfg.NATSURL,
			nats.Name("sochat-realtime"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn().Err(err).Msg("nats disconnected")
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
			}),
		)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("connect pub/sub backbone %s: %w", cfg.NATSURL, err)
		}

		natsRelay, err := pubsub.NewNATSRelay(nc, pubsub.DefaultSubject, hub.Deliver, logger)
		if err != nil {
			nc.Close()
			st.Close()
			return nil, fmt.Errorf("bind relay: %w", err)
		}
		relay = natsRelay
		hub.BindRelay(natsRelay)
		logger.Info().Str("url", nc.ConnectedUrl()).Msg("cross-instance relay established")

		js, err := eventlog.NewJetStream(nc, logger)
		if err != nil {
			// Log completeness degrades; realtime delivery does not.
			logger.Warn().Err(err).Msg("event log unavailable, records will be dropped")
			evtLog = eventlog.NewNop(logger)
		} else {
			evtLog = js
		}
	}

	cache := membership.NewRedisCache(rdb)
	joins := membership.NewService(cache, st, hub, logger)
	presenceStore := presence.NewRedisStore(rdb, cfg.PresenceTTL, cfg.TypingTTL)
	tracker := presence.NewTracker(presenceStore, hub, logger)
	fanout := chat.NewService(hub, evtLog, cfg.MaxMessageLen, logger)
	gate := transporthttp.NewGate(hub, st, logger)

	wsHandler := transporthttp.NewWSHandler(
		verifier, st, hub, gate, joins, fanout, tracker,
		cfg.PingInterval, cfg.IdleTimeout, logger,
	)
	server := transporthttp.NewServer(*cfg, wsHandler, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		rdb:             rdb,
		nc:              nc,
		relay:           relay,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or
// fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
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

func (a *App) cleanup() {
	if a.relay != nil {
		if err := a.relay.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close relay")
		}
	}
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			a.log.Warn().Err(err).Msg("failed to drain nats connection")
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis client")
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
