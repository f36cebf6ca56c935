package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirrorx/tokenradar/internal/config"
	"github.com/mirrorx/tokenradar/internal/domain"
)

func testScorer() *Scorer {
	return NewScorer(config.Default().Scoring, []string{"ignition", "moonshot"})
}

func metricSnap(liq, vol1h, vol24h, ch5, ch1, ch24, surge float64, microRev bool) domain.MetricSnapshot {
	return domain.MetricSnapshot{
		ID:           "TOKEN",
		LiquidityUSD: liq,
		Volume: map[domain.Window]float64{
			domain.Window1h:  vol1h,
			domain.Window24h: vol24h,
		},
		PercentChange: map[domain.Window]float64{
			domain.Window5m:  ch5,
			domain.Window1h:  ch1,
			domain.Window24h: ch24,
		},
		VolumeSurgeRatio15m: surge,
		MicroReversal:       microRev,
	}
}

func TestScore_BoundsUnderPathologicalInputs(t *testing.T) {
	scorer := testScorer()

	cases := []struct {
		name string
		snap domain.MetricSnapshot
	}{
		{"zero everything", metricSnap(0, 0, 0, 0, 0, 0, 0, false)},
		{"zero liquidity extreme move", metricSnap(0, 0, 0, 10_000, 50_000, 100_000, 0, false)},
		{"negative changes", metricSnap(50_000, 100_000, 500_000, -90, -80, -99, 0, false)},
		{"huge participation", metricSnap(1e12, 1e12, 1e12, 1e6, 1e6, 1e6, 1e6, false)},
		{"NaN-adjacent tiny values", metricSnap(1e-12, 1e-12, 1e-12, 1e-12, 1e-12, 1e-12, 1e-12, false)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score := scorer.Score(tc.snap, domain.AccelerationReading{}, "normal")
			assert.False(t, math.IsNaN(score))
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		})
	}
}

func TestScore_StrongSignalScoresHigh(t *testing.T) {
	scorer := testScorer()

	snap := metricSnap(400_000, 1_500_000, 9_000_000, 12, 45, 60, 3.5, false)
	accel := domain.AccelerationReading{Samples: 5, Hint: domain.AccelAccelerating}

	score := scorer.Score(snap, accel, "normal")
	assert.Greater(t, score, 70.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestScore_ExceptionGateBonus(t *testing.T) {
	scorer := testScorer()
	snap := metricSnap(9_000, 30_000, 100_000, 90, 0, 10, 0, false)

	normal := scorer.Score(snap, domain.AccelerationReading{}, "normal")
	exception := scorer.Score(snap, domain.AccelerationReading{}, "ignition")
	assert.Greater(t, exception, normal)
}

func TestScore_PenaltiesReduceScore(t *testing.T) {
	scorer := testScorer()

	// Extended move with strong participation, no reversal tick
	clean := metricSnap(200_000, 800_000, 5_000_000, 12, 30, 90, 1.0, false)
	// Same shape with a micro-reversal: exhaustion + reversal both fire
	warned := metricSnap(200_000, 800_000, 5_000_000, 12, 30, 90, 1.0, true)

	cleanScore, cleanAnn := scorer.ScoreWithAnnotations(clean, domain.AccelerationReading{}, "normal")
	warnedScore, warnedAnn := scorer.ScoreWithAnnotations(warned, domain.AccelerationReading{}, "normal")

	assert.False(t, cleanAnn.ExhaustionWarning)
	assert.True(t, warnedAnn.ExhaustionWarning)
	assert.True(t, warnedAnn.ReversalWarning)
	assert.Less(t, warnedScore, cleanScore)
}

func TestScore_ExhaustionOnThinParticipation(t *testing.T) {
	scorer := testScorer()

	// Extended 24h move with weak 1h dollar volume
	snap := metricSnap(50_000, 20_000, 400_000, 1, 5, 120, 0, false)
	_, ann := scorer.ScoreWithAnnotations(snap, domain.AccelerationReading{}, "normal")
	assert.True(t, ann.ExhaustionWarning)
	assert.False(t, ann.ReversalWarning, "reversal needs the down-tick itself")
}

func TestScore_VolumeShock(t *testing.T) {
	scorer := testScorer()

	shocked := metricSnap(100_000, 300_000, 2_000_000, 5, 15, 30, 2.5, false)
	quiet := metricSnap(100_000, 300_000, 2_000_000, 5, 15, 30, 1.2, false)

	sScore, sAnn := scorer.ScoreWithAnnotations(shocked, domain.AccelerationReading{}, "normal")
	qScore, qAnn := scorer.ScoreWithAnnotations(quiet, domain.AccelerationReading{}, "normal")

	assert.True(t, sAnn.VolumeShock)
	assert.False(t, qAnn.VolumeShock)
	assert.Greater(t, sScore, qScore)
}

func TestStageTag(t *testing.T) {
	scorer := testScorer()

	cases := []struct {
		name           string
		ch5, ch1, ch24 float64
		want           domain.StageTag
	}{
		{"early impulse small day", 3, 10, 5, domain.StageEarly},
		{"late extended day", 1, 5, 120, domain.StageLate},
		{"mid everything else", 1, 5, 40, domain.StageMid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := metricSnap(100_000, 300_000, 2_000_000, tc.ch5, tc.ch1, tc.ch24, 0, false)
			_, ann := scorer.ScoreWithAnnotations(snap, domain.AccelerationReading{}, "normal")
			assert.Equal(t, tc.want, ann.Stage)
		})
	}
}
