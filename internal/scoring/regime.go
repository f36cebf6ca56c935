package scoring

import (
	"github.com/mirrorx/tokenradar/internal/domain"
)

// Regime classifies the aggregate state of the scanned market. The same
// absolute confidence means less in a dead tape than in a frenzied one, so
// scores are scaled by a regime multiplier before ranking.
type Regime string

const (
	RegimeUnknown  Regime = "unknown"
	RegimeDead     Regime = "dead"
	RegimeChoppy   Regime = "choppy"
	RegimeMomentum Regime = "momentum"
	RegimeMania    Regime = "mania"
)

// Classification thresholds on the recent-signal averages.
const (
	deadMaxMove   = 5.0
	deadMaxVol1h  = 100_000.0
	choppyMaxMove = 20.0
	maniaMinMove  = 60.0
)

// ClassifyRegime buckets the recent signal window by average short-term move
// and average 1h dollar volume.
func ClassifyRegime(recent []domain.Signal) Regime {
	if len(recent) == 0 {
		return RegimeUnknown
	}

	var sumMove, sumVol float64
	for _, sig := range recent {
		sumMove += sig.Snapshot.Change(domain.Window1h)
		sumVol += sig.Snapshot.Vol(domain.Window1h)
	}
	avgMove := sumMove / float64(len(recent))
	avgVol := sumVol / float64(len(recent))

	switch {
	case avgMove < deadMaxMove && avgVol < deadMaxVol1h:
		return RegimeDead
	case avgMove < choppyMaxMove:
		return RegimeChoppy
	case avgMove < maniaMinMove:
		return RegimeMomentum
	default:
		return RegimeMania
	}
}

// Multiplier returns the confidence scale factor for a regime.
func (r Regime) Multiplier() float64 {
	switch r {
	case RegimeDead:
		return 0.5
	case RegimeChoppy:
		return 0.75
	case RegimeMomentum:
		return 1.0
	case RegimeMania:
		return 1.15
	default:
		return 1.0
	}
}

// AdjustForRegime scales a confidence score by the regime multiplier,
// clamped back into [0,100].
func AdjustForRegime(confidence float64, regime Regime) float64 {
	return clamp(confidence*regime.Multiplier(), 0, 100)
}
