package persist

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInterval = 5 * time.Minute
	DefaultLimit    = 100
)

// LogSource exposes room logs to the gateway.
type LogSource interface {
	Logs(limit int) map[domain.RoomID][]domain.Message
	RestoreLog(room domain.RoomID, msgs []domain.Message) bool
}

type Gateway struct {
	src      LogSource
	store    core.SnapshotStore
	interval time.Duration
	limit    int
}

func NewGateway(src LogSource, store core.SnapshotStore, interval time.Duration, limit int) *Gateway {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Gateway{src: src, store: store, interval: interval, limit: limit}
}

// Restore loads the snapshot of each room. Missing or unreadable
// snapshots leave the room with an empty log. Returns how many rooms
// were restored.
func (g *Gateway) Restore(ctx context.Context, rooms []domain.RoomID) int {
	n := 0
	for _, id := range rooms {
		msgs, err := g.store.LoadSnapshot(ctx, id)
		switch {
		case errors.Is(err, core.ErrSnapshotNotFound):
			log.Info().Str("module", "persist").Str("room", string(id)).Msg("no snapshot")
			continue
		case err != nil:
			log.Warn().Str("module", "persist").Str("room", string(id)).Err(err).Msg("snapshot unreadable, starting empty")
			continue
		}
		if len(msgs) > g.limit {
			msgs = msgs[len(msgs)-g.limit:]
		}
		if g.src.RestoreLog(id, msgs) {
			n++
			log.Info().Str("module", "persist").Str("room", string(id)).Int("messages", len(msgs)).Msg("restored snapshot")
		}
	}
	return n
}

// Flush writes the newest messages of every non-empty room the source
// reports.
func (g *Gateway) Flush(ctx context.Context) error {
	var errs []error
	saved := 0
	for id, msgs := range g.src.Logs(g.limit) {
		if len(msgs) == 0 {
			continue
		}
		if err := g.store.SaveSnapshot(ctx, id, msgs); err != nil {
			log.Error().Str("module", "persist").Str("room", string(id)).Err(err).Msg("snapshot failed")
			errs = append(errs, err)
			continue
		}
		saved++
	}
	log.Debug().Str("module", "persist").Int("rooms", saved).Msg("snapshot flushed")
	return errors.Join(errs...)
}

// Run flushes every interval until ctx is done.
func (g *Gateway) Run(ctx context.Context) error {
	t := time.NewTicker(g.interval)
	defer t.Stop()
	log.Info().Str("module", "persist").Dur("interval", g.interval).Msg("snapshot loop started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			_ = g.Flush(ctx)
		}
	}
}
