package cooldown

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAlert_FirstFireAllowed(t *testing.T) {
	ctrl := NewMemoryController(30 * time.Minute)

	assert.True(t, ctrl.CanAlert("TOKEN", 50))

	rec, ok := ctrl.Record("TOKEN")
	require.True(t, ok)
	assert.Equal(t, 50.0, rec.LastStrength)
}

func TestCanAlert_Idempotence(t *testing.T) {
	ctrl := NewMemoryController(30 * time.Minute)

	// Same strength twice in immediate succession: true then false
	assert.True(t, ctrl.CanAlert("TOKEN", 42))
	assert.False(t, ctrl.CanAlert("TOKEN", 42))
}

func TestCanAlert_EscalationBypass(t *testing.T) {
	ctrl := NewMemoryController(30 * time.Minute)

	require.True(t, ctrl.CanAlert("TOKEN", 10))
	assert.False(t, ctrl.CanAlert("TOKEN", 5), "weaker signal must stay suppressed")
	assert.True(t, ctrl.CanAlert("TOKEN", 15), "stronger signal bypasses the window")

	rec, _ := ctrl.Record("TOKEN")
	assert.Equal(t, 15.0, rec.LastStrength)
}

func TestCanAlert_WindowElapsedAllowsWeaker(t *testing.T) {
	ctrl := NewMemoryController(30 * time.Minute)

	base := time.Now()
	ctrl.now = func() time.Time { return base }
	require.True(t, ctrl.CanAlert("TOKEN", 90))

	ctrl.now = func() time.Time { return base.Add(31 * time.Minute) }
	assert.True(t, ctrl.CanAlert("TOKEN", 5), "elapsed window allows regardless of strength")

	rec, _ := ctrl.Record("TOKEN")
	assert.Equal(t, 5.0, rec.LastStrength, "record is overwritten, not merged")
}

func TestCanAlert_IDsIndependent(t *testing.T) {
	ctrl := NewMemoryController(30 * time.Minute)

	assert.True(t, ctrl.CanAlert("AAA", 10))
	assert.True(t, ctrl.CanAlert("BBB", 10))
	assert.False(t, ctrl.CanAlert("AAA", 10))
}

func TestCanAlert_ConcurrentSameID(t *testing.T) {
	ctrl := NewMemoryController(30 * time.Minute)

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctrl.CanAlert("RACE", 10) {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	// Equal strengths never escalate against each other, so exactly one
	// caller may win the compare-and-set.
	assert.Equal(t, int64(1), allowed)
}
