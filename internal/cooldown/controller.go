// Package cooldown suppresses duplicate alerts per instrument. An alert may
// fire when no record exists, when the quiet window has elapsed, or when the
// new strength strictly escalates over the stored one.
package cooldown

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/mirrorx/tokenradar/internal/domain"
)

// Controller is the alert-gating contract. Implementations must serialize
// concurrent callers for the same id and not block callers for different ids.
type Controller interface {
	CanAlert(id string, strength float64) bool
}

const stripeCount = 64

// MemoryController keeps alert records in-process with striped locking so the
// compare-and-set for one id never blocks another.
type MemoryController struct {
	window  time.Duration
	now     func() time.Time
	stripes [stripeCount]*stripe
}

type stripe struct {
	mu      sync.Mutex
	records map[string]*domain.AlertRecord
}

// NewMemoryController creates a controller with the given cooldown window.
func NewMemoryController(window time.Duration) *MemoryController {
	c := &MemoryController{
		window: window,
		now:    time.Now,
	}
	for i := range c.stripes {
		c.stripes[i] = &stripe{records: make(map[string]*domain.AlertRecord)}
	}
	return c
}

func (c *MemoryController) stripeFor(id string) *stripe {
	h := fnv.New32a()
	h.Write([]byte(id))
	return c.stripes[h.Sum32()%stripeCount]
}

// CanAlert decides whether an alert for id may fire now and, when it may,
// atomically records the fire. The read-decide-write happens under the id's
// stripe lock so two workers can never both observe "no prior record".
func (c *MemoryController) CanAlert(id string, strength float64) bool {
	st := c.stripeFor(id)
	st.mu.Lock()
	defer st.mu.Unlock()

	now := c.now()
	rec, exists := st.records[id]
	if exists && now.Sub(rec.LastFiredAt) < c.window && strength <= rec.LastStrength {
		return false
	}

	if exists {
		rec.LastFiredAt = now
		rec.LastStrength = strength
	} else {
		st.records[id] = &domain.AlertRecord{
			ID:           id,
			LastFiredAt:  now,
			LastStrength: strength,
		}
	}
	return true
}

// Record returns a copy of the stored record for an id, if any. Used by the
// ops surface and tests.
func (c *MemoryController) Record(id string) (domain.AlertRecord, bool) {
	st := c.stripeFor(id)
	st.mu.Lock()
	defer st.mu.Unlock()

	rec, exists := st.records[id]
	if !exists {
		return domain.AlertRecord{}, false
	}
	return *rec, true
}
