// Package scoring turns a gated snapshot into a bounded confidence score and
// the derived signal annotations (stage, volume shock, exhaustion, reversal).
package scoring

import (
	"math"

	"github.com/mirrorx/tokenradar/internal/config"
	"github.com/mirrorx/tokenradar/internal/domain"
)

// Component weights. The shape of the blend favors sustained 1h momentum
// over raw 5m spikes to reduce pure spike-chasing; exact values are tuned
// empirically and scaled so a strong-everything signal saturates near 100.
const (
	momentumWeight      = 14.0
	vol1hWeight         = 9.0
	vol24hWeight        = 6.0
	liquidityWeight     = 3.0
	surgeWeight         = 4.0
	shockBonus          = 6.0
	acceleratingBonus   = 4.0
	exhaustionPenalty   = 0.78
	reversalPenalty     = 0.88
	momentumScaleDenom  = 25.0
	participationCapMul = 6.0
)

// Scorer computes confidence in [0,100] from momentum, participation,
// liquidity and surge, with multiplicative penalties for exhaustion and
// reversal hints.
type Scorer struct {
	cfg       config.ScoringConfig
	exception map[string]bool
}

// NewScorer creates a scorer. exceptionGates lists the gate names that earn
// the exception bonus.
func NewScorer(cfg config.ScoringConfig, exceptionGates []string) *Scorer {
	exception := make(map[string]bool, len(exceptionGates))
	for _, name := range exceptionGates {
		exception[name] = true
	}
	return &Scorer{cfg: cfg, exception: exception}
}

// Annotations are the elite add-on observations derived alongside the score.
type Annotations struct {
	Stage             domain.StageTag
	VolumeShock       bool
	ExhaustionWarning bool
	ReversalWarning   bool
}

// Score computes the confidence for a snapshot that passed gateName.
func (s *Scorer) Score(snap domain.MetricSnapshot, accel domain.AccelerationReading, gateName string) float64 {
	score, _ := s.ScoreWithAnnotations(snap, accel, gateName)
	return score
}

// ScoreWithAnnotations computes the confidence plus the derived annotations
// so dispatch never has to re-run the heuristics.
func (s *Scorer) ScoreWithAnnotations(snap domain.MetricSnapshot, accel domain.AccelerationReading, gateName string) (float64, Annotations) {
	ch5 := math.Max(snap.Change(domain.Window5m), 0)
	ch1 := math.Max(snap.Change(domain.Window1h), 0)
	ch24 := math.Max(snap.Change(domain.Window24h), 0)

	vol1h := math.Max(snap.Vol(domain.Window1h), 0)
	vol24h := math.Max(snap.Vol(domain.Window24h), 0)
	liq := math.Max(snap.LiquidityUSD, 0)
	surge := math.Max(snap.VolumeSurgeRatio15m, 0)

	ann := Annotations{
		Stage:       s.stageTag(ch5, ch1, ch24),
		VolumeShock: s.volumeShock(vol1h, surge),
	}
	ann.ExhaustionWarning, ann.ReversalWarning = s.warnings(ch5, ch24, vol1h, snap.MicroReversal)

	// Momentum blend, 1h weighted heaviest
	mom := ch1*0.55 + ch5*0.25 + ch24*0.20
	momN := clamp(mom/momentumScaleDenom, 0, participationCapMul)

	// Participation against fixed dollar baselines, ratio-capped
	v1N := clamp(vol1h/math.Max(s.cfg.BaselineVol1h, 1), 0, participationCapMul)
	v24N := clamp(vol24h/math.Max(s.cfg.BaselineVol24h, 1), 0, participationCapMul)
	liqN := clamp(liq/math.Max(s.cfg.BaselineLiqUSD, 1), 0, 4)
	surgeN := clamp(surge/2, 0, 4)

	raw := momN*momentumWeight +
		v1N*vol1hWeight +
		v24N*vol24hWeight +
		liqN*liquidityWeight +
		surgeN*surgeWeight

	if ann.VolumeShock {
		raw += shockBonus
	}
	if s.exception[gateName] {
		raw += s.cfg.ExceptionGateBonus
	}
	if accel.Hint == domain.AccelAccelerating {
		raw += acceleratingBonus
	}

	if ann.ExhaustionWarning {
		raw *= exhaustionPenalty
	}
	if ann.ReversalWarning {
		raw *= reversalPenalty
	}

	return clamp(raw, 0, 100), ann
}

// stageTag labels how far into the move the instrument looks.
func (s *Scorer) stageTag(ch5, ch1, ch24 float64) domain.StageTag {
	if ch24 < 20 && (ch1 >= 8 || ch5 >= 2.5) {
		return domain.StageEarly
	}
	if ch24 >= s.cfg.ExhaustionExtend24 {
		return domain.StageLate
	}
	return domain.StageMid
}

// volumeShock fires when the last 15 minutes materially outrun the preceding
// 45-minute average with real dollar participation behind it.
func (s *Scorer) volumeShock(vol1h, surge float64) bool {
	return vol1h >= s.cfg.VolShockMinVol1h && surge >= s.cfg.VolShockRatioMin
}

// warnings derives the exhaustion and reversal hints. Exhaustion is an
// extended move paired with thin participation or a micro-reversal tick;
// a reversal warning is the down-tick itself while still extended.
func (s *Scorer) warnings(ch5, ch24, vol1h float64, microReversal bool) (exhaustion, reversal bool) {
	extended := ch5 >= s.cfg.ExhaustionExtend5m || ch24 >= s.cfg.ExhaustionExtend24

	exhaustion = extended && (microReversal || vol1h < s.cfg.BaselineVol1h*0.75)
	reversal = extended && microReversal
	return exhaustion, reversal
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
