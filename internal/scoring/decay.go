package scoring

import (
	"math"
	"time"
)

// Decay applies exponential time decay to confidence so an unrefreshed
// signal's reported score falls monotonically with age.
type Decay struct {
	lambda float64 // per-minute decay rate
}

// NewDecay creates a decay curve with the given half-life.
func NewDecay(halfLife time.Duration) *Decay {
	minutes := halfLife.Minutes()
	if minutes <= 0 {
		minutes = 45
	}
	return &Decay{lambda: math.Ln2 / minutes}
}

// Apply returns the decayed confidence for a signal created at createdAt,
// observed at now. A future createdAt decays nothing.
func (d *Decay) Apply(confidence float64, createdAt, now time.Time) float64 {
	elapsed := now.Sub(createdAt).Minutes()
	if elapsed <= 0 {
		return confidence
	}
	decayed := confidence * math.Exp(-d.lambda*elapsed)
	if decayed < 0 {
		return 0
	}
	return decayed
}
