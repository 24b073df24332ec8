package relay

import (
	"context"
	"time"

	"github.com/rpaops/filterrelay/pkg/logging"
)

// SweepPeriod is how often the sweeper checks the slot.
const SweepPeriod = time.Minute

// Sweeper periodically deletes the relay slot once its payload outlives TTL.
// It is the leak backstop for payloads no page ever consumes; normal
// consumption is still read-then-delete on the consumer side.
type Sweeper struct {
	store  Store
	period time.Duration
	log    *logging.Logger
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(store Store, log *logging.Logger) *Sweeper {
	return &Sweeper{
		store:  store,
		period: SweepPeriod,
		log:    log,
	}
}

// Run sweeps until ctx is cancelled.
//
// Get already purges a stale payload on access, so a sweep is a plain read:
// observing the slot is enough to clean it.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.store.Get(ctx); err != nil {
				s.log.Warnf("relay sweep failed: %v", err)
			}
		}
	}
}
