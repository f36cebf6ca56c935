package snapshot

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorx/tokenradar/internal/domain"
)

func snapWithChanges(id string, ch5, ch1 float64) domain.MetricSnapshot {
	return domain.MetricSnapshot{
		ID:        id,
		Timestamp: time.Now().UTC(),
		PercentChange: map[domain.Window]float64{
			domain.Window5m: ch5,
			domain.Window1h: ch1,
		},
	}
}

func TestRecentByID_NewestFirst(t *testing.T) {
	store := NewMemoryStore(2000)

	for i := 0; i < 5; i++ {
		store.Record(snapWithChanges("TOKEN", float64(i), 0))
	}

	rows := store.RecentByID("TOKEN", 3)
	require.Len(t, rows, 3)
	assert.Equal(t, 4.0, rows[0].Change(domain.Window5m))
	assert.Equal(t, 3.0, rows[1].Change(domain.Window5m))
	assert.Equal(t, 2.0, rows[2].Change(domain.Window5m))
}

func TestRecentByID_UnknownID(t *testing.T) {
	store := NewMemoryStore(2000)
	assert.Empty(t, store.RecentByID("missing", 10))
}

func TestComputeAcceleration_BuildingBelowFloor(t *testing.T) {
	store := NewMemoryStore(2000)

	store.Record(snapWithChanges("NEW", 5, 10))
	store.Record(snapWithChanges("NEW", 50, 100))

	reading := store.ComputeAcceleration("NEW")
	assert.Equal(t, 2, reading.Samples)
	assert.Equal(t, domain.AccelBuilding, reading.Hint)
}

func TestComputeAcceleration_Accelerating(t *testing.T) {
	store := NewMemoryStore(2000)

	store.Record(snapWithChanges("HOT", 1, 5))
	store.Record(snapWithChanges("HOT", 4, 10))
	store.Record(snapWithChanges("HOT", 12, 18)) // 5m delta = +11 > +8

	reading := store.ComputeAcceleration("HOT")
	assert.Equal(t, 3, reading.Samples)
	assert.Equal(t, domain.AccelAccelerating, reading.Hint)
	assert.InDelta(t, 11.0, reading.ChangeDelta[domain.Window5m], 1e-9)
}

func TestComputeAcceleration_Decelerating(t *testing.T) {
	store := NewMemoryStore(2000)

	store.Record(snapWithChanges("FADE", 20, 80))
	store.Record(snapWithChanges("FADE", 10, 60))
	store.Record(snapWithChanges("FADE", 2, 40)) // 1h delta = -40 < -20

	reading := store.ComputeAcceleration("FADE")
	assert.Equal(t, domain.AccelDecelerating, reading.Hint)
}

func TestComputeAcceleration_Flat(t *testing.T) {
	store := NewMemoryStore(2000)

	store.Record(snapWithChanges("CALM", 2, 5))
	store.Record(snapWithChanges("CALM", 3, 8))
	store.Record(snapWithChanges("CALM", 4, 10))

	reading := store.ComputeAcceleration("CALM")
	assert.Equal(t, domain.AccelFlat, reading.Hint)
}

func TestRecord_EvictsOldestUnderBudget(t *testing.T) {
	// shardCount ids on a minimal budget: one record per shard slot
	store := NewMemoryStore(shardCount)

	for i := 0; i < 100; i++ {
		store.Record(snapWithChanges("HOG", float64(i), 0))
	}

	rows := store.RecentByID("HOG", 200)
	require.NotEmpty(t, rows)
	assert.LessOrEqual(t, len(rows), shardCount)
	// Newest record always survives eviction
	assert.Equal(t, 99.0, rows[0].Change(domain.Window5m))
}

func TestMemoryStore_ConcurrentRecordRead(t *testing.T) {
	store := NewMemoryStore(2000)
	done := make(chan struct{})

	for w := 0; w < 8; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			id := fmt.Sprintf("TOK-%d", w)
			for i := 0; i < 200; i++ {
				store.Record(snapWithChanges(id, float64(i), float64(i)))
				store.RecentByID(id, 5)
				store.ComputeAcceleration(id)
			}
		}(w)
	}

	for w := 0; w < 8; w++ {
		<-done
	}
}
