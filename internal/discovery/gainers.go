package discovery

import (
	"context"
	"sort"
	"time"

	"github.com/mirrorx/tokenradar/internal/domain"
	"github.com/mirrorx/tokenradar/internal/snapshot"
)

// GainerFeed resurfaces the strongest 24h movers already present in snapshot
// history, so an instrument that gated out earlier keeps getting another look
// while its move is alive.
type GainerFeed struct {
	store  snapshot.Store
	ids    func() []string
	minPct float64
}

// NewGainerFeed creates the feed. idSource enumerates the ids with retained
// history (the memory store tracks this; external stores supply their own
// enumeration).
func NewGainerFeed(store snapshot.Store, idSource func() []string, minPct float64) *GainerFeed {
	return &GainerFeed{store: store, ids: idSource, minPct: minPct}
}

func (f *GainerFeed) Name() string { return "snapshot_gainers" }

func (f *GainerFeed) List(_ context.Context, limit int) ([]domain.Candidate, error) {
	now := time.Now().UTC()

	type mover struct {
		id    string
		score float64
	}
	var movers []mover
	for _, id := range f.ids() {
		rows := f.store.RecentByID(id, 1)
		if len(rows) == 0 {
			continue
		}
		if rows[0].Change(domain.Window24h) >= f.minPct {
			movers = append(movers, mover{id: id, score: PreScore(rows[0])})
		}
	}

	sort.Slice(movers, func(i, j int) bool { return movers[i].score > movers[j].score })
	if len(movers) > limit {
		movers = movers[:limit]
	}

	out := make([]domain.Candidate, 0, len(movers))
	for _, m := range movers {
		out = append(out, domain.Candidate{
			ID:           m.id,
			Source:       domain.SourceGainer,
			DiscoveredAt: now,
			PreScore:     m.score,
		})
	}
	return out, nil
}
