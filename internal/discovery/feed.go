// Package discovery builds the candidate universe for each detection cycle
// from several independent feeds. Feed failures are expected and never halt a
// cycle; a feed that errors simply contributes nothing this round.
package discovery

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mirrorx/tokenradar/internal/domain"
)

// Feed is one discovery source. List returns up to limit candidates; errors
// are feed-local and non-fatal to the cycle.
type Feed interface {
	Name() string
	List(ctx context.Context, limit int) ([]domain.Candidate, error)
}

// Engine fans out to all feeds concurrently and merges the results into one
// deduplicated, pre-scored candidate set.
type Engine struct {
	feeds       []Feed
	feedTimeout time.Duration
}

// NewEngine creates a discovery engine. Feed order matters: when two feeds
// surface the same id, the earlier feed's source tag wins.
func NewEngine(feedTimeout time.Duration, feeds ...Feed) *Engine {
	return &Engine{feeds: feeds, feedTimeout: feedTimeout}
}

// Discover merges all feeds into at most limit candidates ordered by
// pre-score. The second return is the number of feeds that answered; a feed
// that answers with nothing still counts as reachable, so callers can tell a
// quiet round from a total outage.
func (e *Engine) Discover(ctx context.Context, limit int) ([]domain.Candidate, int) {
	if limit <= 0 || len(e.feeds) == 0 {
		return nil, 0
	}

	var reachable int32
	results := make([][]domain.Candidate, len(e.feeds))
	var wg sync.WaitGroup
	for i, feed := range e.feeds {
		wg.Add(1)
		go func(i int, feed Feed) {
			defer wg.Done()

			feedCtx, cancel := context.WithTimeout(ctx, e.feedTimeout)
			defer cancel()

			cands, err := feed.List(feedCtx, limit)
			if err != nil {
				log.Warn().Err(err).Str("feed", feed.Name()).Msg("Discovery feed failed, skipping this cycle")
				return
			}
			atomic.AddInt32(&reachable, 1)
			results[i] = cands
		}(i, feed)
	}
	wg.Wait()

	// Merge in feed order so the earliest-seen source tag sticks
	seen := make(map[string]bool)
	merged := make([]domain.Candidate, 0, limit)
	for _, cands := range results {
		for _, c := range cands {
			if c.ID == "" || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			merged = append(merged, c)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PreScore > merged[j].PreScore
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}

	log.Debug().
		Int("candidates", len(merged)).
		Int("feeds", len(e.feeds)).
		Int32("reachable", reachable).
		Msg("Discovery cycle merged")
	return merged, int(reachable)
}
