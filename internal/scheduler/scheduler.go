// Package scheduler drives the detection loop on a fixed cadence with a bit
// of jitter so restarts do not herd against provider rate limits.
package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mirrorx/tokenradar/internal/scan"
)

// Scheduler runs cycles until its context ends.
type Scheduler struct {
	orch     *scan.Orchestrator
	interval time.Duration
	jitter   time.Duration
}

func New(orch *scan.Orchestrator, interval, jitter time.Duration) *Scheduler {
	return &Scheduler{orch: orch, interval: interval, jitter: jitter}
}

// Run executes an immediate first cycle and then one per interval. Cycle
// errors are logged and the loop continues; only context cancellation stops
// it.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.nextDelay()):
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.orch.RunCycle(ctx); err != nil {
		if errors.Is(err, scan.ErrDiscoveryUnavailable) {
			log.Warn().Msg("No discovery feed reachable this cycle")
			return
		}
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Cycle failed")
		}
	}
}

func (s *Scheduler) nextDelay() time.Duration {
	d := s.interval
	if s.jitter > 0 {
		d += time.Duration(rand.Int63n(int64(s.jitter)))
	}
	return d
}
