package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reaper permanently deletes rooms that have sat empty longer than the
// configured TTL. It is the only path that destroys an abandoned room;
// leave handling never deletes a room the host might still reclaim.
type Reaper struct {
	registry *Registry
	hub      *Hub
	interval time.Duration
	ttl      time.Duration
	log      *zerolog.Logger
}

// NewReaper builds a reaper sweeping every interval, deleting rooms
// whose empty-room marker is older than ttl. hub may be nil; when set,
// the hub's per-room ordering state is released alongside the room.
func NewReaper(registry *Registry, hub *Hub, interval, ttl time.Duration, logger *zerolog.Logger) *Reaper {
	return &Reaper{
		registry: registry,
		hub:      hub,
		interval: interval,
		ttl:      ttl,
		log:      logger,
	}
}

// Run sweeps on a fixed ticker until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if reaped := r.registry.Sweep(r.ttl); len(reaped) > 0 {
				if r.hub != nil {
					r.hub.dropSequencers(reaped)
				}
				r.log.Info().Strs("room_ids", reaped).Msg("reaped abandoned rooms")
			}
		case <-ctx.Done():
			return
		}
	}
}
