// Package snapshot keeps a bounded rolling history of metric snapshots per
// instrument and derives short-term acceleration from it. The history is a
// diagnostic aid, not a source of truth; lossy eviction under the retention
// cap is acceptable.
package snapshot

import (
	"hash/fnv"
	"sync"

	"github.com/mirrorx/tokenradar/internal/domain"
)

// Acceleration thresholds: a percent-change delta beyond these between the
// oldest retained and newest snapshot flips the hint.
const (
	accelThreshold5m = 8.0
	accelThreshold1h = 20.0

	// minSamples guards against false acceleration on an instrument's
	// first sightings.
	minSamples = 3

	// sampleWindow bounds how far back acceleration looks.
	sampleWindow = 10

	shardCount = 16
)

// Store is the snapshot history contract shared by the in-memory and Redis
// implementations.
type Store interface {
	Record(snap domain.MetricSnapshot)
	RecentByID(id string, n int) []domain.MetricSnapshot
	ComputeAcceleration(id string) domain.AccelerationReading
}

// MemoryStore is a sharded in-process ring. Each shard owns a slice of the
// global retention budget and serializes only its own ids, so concurrent
// cycle workers on different instruments do not contend on one lock.
type MemoryStore struct {
	shards [shardCount]*shard
}

type shard struct {
	mu     sync.Mutex
	budget int
	fifo   []domain.MetricSnapshot
	byID   map[string][]domain.MetricSnapshot
}

// NewMemoryStore creates a store retaining at most maxRecords snapshots
// across all instruments, oldest evicted first.
func NewMemoryStore(maxRecords int) *MemoryStore {
	if maxRecords < shardCount {
		maxRecords = shardCount
	}
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{
			budget: maxRecords / shardCount,
			byID:   make(map[string][]domain.MetricSnapshot),
		}
	}
	return s
}

func (s *MemoryStore) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// Record appends a snapshot, evicting the shard's oldest record when over
// budget.
func (s *MemoryStore) Record(snap domain.MetricSnapshot) {
	sh := s.shardFor(snap.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.fifo = append(sh.fifo, snap)
	sh.byID[snap.ID] = append(sh.byID[snap.ID], snap)

	if len(sh.fifo) > sh.budget {
		oldest := sh.fifo[0]
		sh.fifo = sh.fifo[1:]

		rows := sh.byID[oldest.ID]
		if len(rows) > 0 {
			rows = rows[1:]
		}
		if len(rows) == 0 {
			delete(sh.byID, oldest.ID)
		} else {
			sh.byID[oldest.ID] = rows
		}
	}
}

// RecentByID returns up to n snapshots for the id, newest first.
func (s *MemoryStore) RecentByID(id string, n int) []domain.MetricSnapshot {
	if n <= 0 {
		return nil
	}

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rows := sh.byID[id]
	if len(rows) == 0 {
		return nil
	}
	if n > len(rows) {
		n = len(rows)
	}

	out := make([]domain.MetricSnapshot, 0, n)
	for i := len(rows) - 1; i >= len(rows)-n; i-- {
		out = append(out, rows[i])
	}
	return out
}

// ComputeAcceleration derives the trajectory hint for an id from its retained
// history.
func (s *MemoryStore) ComputeAcceleration(id string) domain.AccelerationReading {
	return accelerationFrom(s.RecentByID(id, sampleWindow))
}

// TrackedIDs returns every id that currently has retained history.
func (s *MemoryStore) TrackedIDs() []string {
	var ids []string
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id := range sh.byID {
			ids = append(ids, id)
		}
		sh.mu.Unlock()
	}
	return ids
}

// accelerationFrom compares the newest snapshot's percent change per window
// against the oldest retained one. Fewer than minSamples yields "building"
// rather than a guess.
func accelerationFrom(rows []domain.MetricSnapshot) domain.AccelerationReading {
	if len(rows) < minSamples {
		return domain.AccelerationReading{
			Samples: len(rows),
			Hint:    domain.AccelBuilding,
		}
	}

	latest := rows[0]
	oldest := rows[len(rows)-1]

	delta := map[domain.Window]float64{
		domain.Window5m:  latest.Change(domain.Window5m) - oldest.Change(domain.Window5m),
		domain.Window1h:  latest.Change(domain.Window1h) - oldest.Change(domain.Window1h),
		domain.Window24h: latest.Change(domain.Window24h) - oldest.Change(domain.Window24h),
	}

	hint := domain.AccelFlat
	switch {
	case delta[domain.Window5m] > accelThreshold5m || delta[domain.Window1h] > accelThreshold1h:
		hint = domain.AccelAccelerating
	case delta[domain.Window5m] < -accelThreshold5m || delta[domain.Window1h] < -accelThreshold1h:
		hint = domain.AccelDecelerating
	}

	return domain.AccelerationReading{
		Samples:     len(rows),
		ChangeDelta: delta,
		Hint:        hint,
	}
}
