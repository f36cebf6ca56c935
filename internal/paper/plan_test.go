package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlanWithRangeProxy(t *testing.T) {
	plan, ok := BuildPlan(10.0, 0.5)
	require.True(t, ok)

	assert.Equal(t, 10.0, plan.Entry)
	assert.InDelta(t, 11.0, plan.TakeProfit, 1e-9) // entry + 2R
	assert.InDelta(t, 9.5, plan.StopLoss, 1e-9)    // entry - 1R
	assert.Equal(t, 0.5, plan.Risk)
}

func TestBuildPlanFallsBackToPriceFraction(t *testing.T) {
	plan, ok := BuildPlan(100.0, 0)
	require.True(t, ok)

	assert.Equal(t, 2.0, plan.Risk)
	assert.Equal(t, 104.0, plan.TakeProfit)
	assert.Equal(t, 98.0, plan.StopLoss)
}

func TestBuildPlanMicrocapFloor(t *testing.T) {
	plan, ok := BuildPlan(0.05, 0)
	require.True(t, ok)

	assert.Equal(t, 0.01, plan.Risk)
	assert.Equal(t, 0.0, plan.StopLoss) // clamped, never negative
}

func TestBuildPlanRejectsZeroPrice(t *testing.T) {
	_, ok := BuildPlan(0, 1)
	assert.False(t, ok)
}
