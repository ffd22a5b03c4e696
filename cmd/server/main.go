package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/runchat/internal/adapters/http"
	"github.com/dkeye/runchat/internal/app"
	"github.com/dkeye/runchat/internal/app/orch"
	"github.com/dkeye/runchat/internal/clock"
	"github.com/dkeye/runchat/internal/config"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/dkeye/runchat/internal/persist"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogging(cfg *config.Config) {
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (persist.BlobStore, error) {
	switch cfg.Driver {
	case "nats":
		return persist.NewNatsStore(ctx, cfg.NatsURL, cfg.Bucket)
	case "postgres":
		return persist.NewPostgresStore(ctx, cfg.PostgresDSN)
	case "memory":
		return persist.NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store := persist.NewRedisStore(client, cfg.Prefix)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			// Redis may come up later; snapshots fail and are retried each interval.
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
		}
		return store, nil
	default:
		return persist.NewFileStore(afero.NewOsFs(), cfg.Path)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	policy, err := app.NewPolicy(cfg.Backpressure)
	if err != nil {
		return err
	}
	o := orch.New(orch.Config{
		RoomTTL:           cfg.RoomTTL,
		HistoryLimit:      cfg.HistoryLimit,
		HeartbeatInterval: cfg.HeartbeatInterval,
		HeartbeatGrace:    cfg.HeartbeatGrace,
		Clock:             clock.Real{},
		Policy:            policy,
	})

	rooms := make([]domain.Room, 0, len(cfg.Rooms))
	ids := make([]domain.RoomID, 0, len(cfg.Rooms))
	for _, rc := range cfg.Rooms {
		rooms = append(rooms, domain.Room{
			ID:          domain.RoomID(rc.ID),
			Name:        domain.RoomName(rc.Name),
			Description: rc.Description,
			Icon:        rc.Icon,
		})
		ids = append(ids, domain.RoomID(rc.ID))
	}
	if err := o.Bootstrap(rooms); err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer store.Close()

	gw := persist.NewGateway(o, persist.NewBlobSnapshots(store), cfg.Snapshot.Interval, cfg.Snapshot.Limit)
	restored := gw.Restore(ctx, ids)
	log.Info().Int("rooms", restored).Msg("snapshots restored")

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router.SetupRouter(ctx, cfg, o),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("runchat server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return gw.Run(gctx) })
	g.Go(func() error { return o.Presence.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		o.Shutdown()
		if err := gw.Flush(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("final snapshot incomplete")
		}
		return nil
	})
	return g.Wait()
}
