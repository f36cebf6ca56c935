package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorx/tokenradar/internal/config"
	"github.com/mirrorx/tokenradar/internal/domain"
)

func testProfile() config.GateProfile {
	return config.GateProfile{
		Name: "test",
		Normal: config.NormalGate{
			MinLiquidityUSD: 30_000,
			MinVol1hUSD:     150_000,
			MinVol24hUSD:    750_000,
			MinMovePct:      5.0,
		},
		Exceptions: []config.ExceptionGate{
			{
				Name:            "ignition",
				MinLiquidityUSD: 8_000,
				MinVol1hUSD:     25_000,
				MinChange5mPct:  80.0,
			},
		},
	}
}

func snap(liq, vol1h, vol24h, ch5, ch1 float64) domain.MetricSnapshot {
	return domain.MetricSnapshot{
		ID:           "TOKEN",
		LiquidityUSD: liq,
		Volume: map[domain.Window]float64{
			domain.Window1h:  vol1h,
			domain.Window24h: vol24h,
		},
		PercentChange: map[domain.Window]float64{
			domain.Window5m: ch5,
			domain.Window1h: ch1,
		},
	}
}

func TestEvaluate_NormalGatePasses(t *testing.T) {
	engine := NewEngine(testProfile())

	passed, gate := engine.Evaluate(snap(50_000, 200_000, 900_000, 2, 10))
	require.True(t, passed)
	assert.Equal(t, GateNormal, gate)
}

func TestEvaluate_ExceptionGatePassesWhenNormalFails(t *testing.T) {
	engine := NewEngine(testProfile())

	// Too thin for the normal gate, but extreme enough for ignition
	passed, gate := engine.Evaluate(snap(9_000, 30_000, 0, 90, 0))
	require.True(t, passed)
	assert.Equal(t, "ignition", gate)
}

func TestEvaluate_NoGatePasses(t *testing.T) {
	engine := NewEngine(testProfile())

	passed, gate := engine.Evaluate(snap(5_000, 10_000, 50_000, 1, 1))
	assert.False(t, passed)
	assert.Empty(t, gate)
}

func TestEvaluate_LiquidityFloorHolds(t *testing.T) {
	engine := NewEngine(testProfile())

	// Plenty of volume and movement but below every liquidity floor
	passed, _ := engine.Evaluate(snap(1_000, 500_000, 5_000_000, 90, 200))
	assert.False(t, passed)
}

func TestEvaluate_VolumeFloorsAreOrd(t *testing.T) {
	engine := NewEngine(testProfile())

	// 1h volume short, 24h volume carries the gate
	passed, gate := engine.Evaluate(snap(50_000, 10_000, 800_000, 0, 12))
	require.True(t, passed)
	assert.Equal(t, GateNormal, gate)
}

func TestEvaluate_MovementMonotonicity(t *testing.T) {
	engine := NewEngine(testProfile())

	// For fixed volume/liquidity, increasing movement can only flip a
	// candidate from rejected to accepted, never the reverse.
	accepted := false
	for ch := 0.0; ch <= 100.0; ch += 1.0 {
		passed, _ := engine.Evaluate(snap(50_000, 200_000, 900_000, 0, ch))
		if accepted {
			assert.True(t, passed, "gate became anti-monotonic at change %.1f", ch)
		}
		if passed {
			accepted = true
		}
	}
	assert.True(t, accepted)
}

func TestEvaluate_NormalTriedBeforeExceptions(t *testing.T) {
	engine := NewEngine(testProfile())

	// Satisfies both the normal gate and ignition; normal wins
	passed, gate := engine.Evaluate(snap(50_000, 200_000, 900_000, 95, 10))
	require.True(t, passed)
	assert.Equal(t, GateNormal, gate)
}

func TestIsException(t *testing.T) {
	engine := NewEngine(testProfile())

	assert.True(t, engine.IsException("ignition"))
	assert.False(t, engine.IsException(GateNormal))
	assert.False(t, engine.IsException("unknown"))
}
