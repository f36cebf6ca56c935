package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowDrainsBurstPerHost(t *testing.T) {
	l := NewLimiter(1, 2)

	assert.True(t, l.Allow("api.example.com"))
	assert.True(t, l.Allow("api.example.com"))
	assert.False(t, l.Allow("api.example.com"))

	// a different host has its own bucket
	assert.True(t, l.Allow("other.example.com"))
}

func TestWaitBlocksUntilTokenAvailable(t *testing.T) {
	l := NewLimiter(50, 1)
	require.True(t, l.Allow("host"))

	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "host"))
	assert.Greater(t, time.Since(start), 5*time.Millisecond)
}

func TestWaitRespectsContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	require.True(t, l.Allow("host"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "host"))
}

func TestSetRPSAppliesToExistingHosts(t *testing.T) {
	l := NewLimiter(1, 1)
	require.True(t, l.Allow("host"))
	require.False(t, l.Allow("host"))

	l.SetRPS(10_000)
	time.Sleep(5 * time.Millisecond)
	assert.True(t, l.Allow("host"))
}

func TestHostsListsKnownBuckets(t *testing.T) {
	l := NewLimiter(1, 1)
	l.Allow("a")
	l.Allow("b")

	assert.ElementsMatch(t, []string{"a", "b"}, l.Hosts())
}
