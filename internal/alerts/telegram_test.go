package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWithRetryRecoversOnLaterAttempt(t *testing.T) {
	calls := 0
	err := sendWithRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("flood control")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSendWithRetryFinalFailureReturnsWithoutSleeping(t *testing.T) {
	calls := 0
	start := time.Now()
	err := sendWithRetry(context.Background(), 3, 40*time.Millisecond, func() error {
		calls++
		return errors.New("still down")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	// backoff runs between attempts only (40ms + 80ms), never after the last
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestSendWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sendWithRetry(ctx, 3, time.Second, func() error {
		return errors.New("nope")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
