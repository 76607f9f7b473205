package tokstore

import (
	"context"
	"time"
)

// Scheduler runs Store.Purge on a fixed interval until its context is
// canceled (spec §4.2, component C5). Missed ticks never accumulate: only
// the next scheduled tick fires, matching time.Ticker's semantics.
type Scheduler struct {
	store    *Store
	interval time.Duration
	onTick   func(removed int)
}

// NewScheduler creates a purge scheduler for store, sweeping every interval.
// onTick, if non-nil, is called after each sweep with the number of entries
// removed; it is used to drive metrics and tracing, never store semantics.
func NewScheduler(store *Store, interval time.Duration, onTick func(removed int)) *Scheduler {
	return &Scheduler{store: store, interval: interval, onTick: onTick}
}

// Run blocks, sweeping on every tick, until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.store.Purge(time.Now())
			if s.onTick != nil {
				s.onTick(removed)
			}
		}
	}
}
