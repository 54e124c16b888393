// internal/store/sweeper.go
//
// Background worker that evicts sessions idle longer than the TTL.

package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultSweepInterval = time.Minute

// Sweeper periodically evicts idle sessions.
type Sweeper struct {
	store    Store
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewSweeper creates an eviction worker. interval <= 0 uses one minute.
func NewSweeper(st Store, ttl, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{store: st, ttl: ttl, interval: interval, now: time.Now}
}

// Start runs the worker until ctx is cancelled.
func (sw *Sweeper) Start(ctx context.Context) {
	go sw.run(ctx)
}

func (sw *Sweeper) run(ctx context.Context) {
	log.Info().Dur("ttl", sw.ttl).Dur("interval", sw.interval).Msg("session sweeper started")

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session sweeper stopped")
			return
		case <-ticker.C:
			sw.sweep(ctx)
		}
	}
}

func (sw *Sweeper) sweep(ctx context.Context) int {
	ids, err := sw.store.Sweep(ctx, sw.ttl, sw.now())
	if err != nil {
		log.Error().Err(err).Msg("session sweep failed")
		return 0
	}
	if len(ids) > 0 {
		log.Info().Int("count", len(ids)).Strs("ids", ids).Msg("idle sessions removed")
	}
	return len(ids)
}
