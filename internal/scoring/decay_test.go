package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecay_MonotonicWithAge(t *testing.T) {
	decay := NewDecay(45 * time.Minute)
	created := time.Now()

	prev := 80.0
	for age := time.Minute; age <= 4*time.Hour; age += 10 * time.Minute {
		got := decay.Apply(80, created, created.Add(age))
		assert.LessOrEqual(t, got, prev, "decay must be monotone at age %s", age)
		assert.GreaterOrEqual(t, got, 0.0)
		prev = got
	}
}

func TestDecay_HalfLife(t *testing.T) {
	decay := NewDecay(45 * time.Minute)
	created := time.Now()

	got := decay.Apply(80, created, created.Add(45*time.Minute))
	assert.InDelta(t, 40.0, got, 0.5)
}

func TestDecay_FreshSignalUntouched(t *testing.T) {
	decay := NewDecay(45 * time.Minute)
	now := time.Now()

	assert.Equal(t, 66.0, decay.Apply(66, now, now))
	// Clock skew: a future createdAt never inflates the score
	assert.Equal(t, 66.0, decay.Apply(66, now.Add(time.Minute), now))
}
