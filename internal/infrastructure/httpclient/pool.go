// Package httpclient provides a bounded, paced HTTP client pool with a
// single centralized retry/backoff policy for all upstream calls.
package httpclient

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ClientConfig tunes the pool. Jitter is applied before every request so
// concurrent workers never hit the same host in a synchronized burst.
type ClientConfig struct {
	MaxConcurrency int
	RequestTimeout time.Duration
	JitterRange    [2]int // min/max jitter in milliseconds
	MaxRetries     int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	UserAgent      string
}

// ClientPool wraps http.Client with concurrency limiting, pacing jitter and
// exponential backoff on retryable failures.
type ClientPool struct {
	config    ClientConfig
	semaphore chan struct{}
	client    *http.Client
	mu        sync.RWMutex
	stats     ClientStats
}

// ClientStats tracks request outcomes for the ops surface.
type ClientStats struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	RetriedRequests int64
}

func NewClientPool(config ClientConfig) *ClientPool {
	if config.MaxConcurrency < 1 {
		config.MaxConcurrency = 1
	}
	return &ClientPool{
		config:    config,
		semaphore: make(chan struct{}, config.MaxConcurrency),
		client: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}
}

// Do executes the request under the pool's concurrency limit. Retryable
// failures (network errors, 429, 5xx) are retried with exponential backoff up
// to MaxRetries; the last response or error is returned.
func (cp *ClientPool) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	select {
	case cp.semaphore <- struct{}{}:
		defer func() { <-cp.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if cp.config.UserAgent != "" {
		req.Header.Set("User-Agent", cp.config.UserAgent)
	}

	if err := cp.applyJitter(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= cp.config.MaxRetries; attempt++ {
		if attempt > 0 {
			cp.incrementStat("retried")

			backoff := cp.calculateBackoff(attempt)
			log.Debug().
				Dur("backoff", backoff).
				Int("attempt", attempt).
				Str("url", req.URL.String()).
				Msg("Retrying HTTP request")

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := cp.client.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = err
			cp.incrementStat("failed")

			if isRetryableError(err) {
				continue
			}
			break
		}

		if isRetryableStatus(resp.StatusCode) && attempt < cp.config.MaxRetries {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
			continue
		}

		cp.incrementStat("success")
		return resp, nil
	}

	cp.incrementStat("failed")
	return nil, lastErr
}

func (cp *ClientPool) applyJitter(ctx context.Context) error {
	min := cp.config.JitterRange[0]
	max := cp.config.JitterRange[1]
	if min >= max {
		return nil
	}

	jitter := time.Duration(rand.Intn(max-min)+min) * time.Millisecond
	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cp *ClientPool) calculateBackoff(attempt int) time.Duration {
	backoff := cp.config.BackoffBase * time.Duration(1<<uint(attempt))
	if backoff > cp.config.BackoffMax {
		backoff = cp.config.BackoffMax
	}

	// Up to 10% jitter so retries from different workers spread out
	jitter := time.Duration(rand.Float64() * 0.1 * float64(backoff))
	return backoff + jitter
}

// GetStats returns a copy of the pool's request counters.
func (cp *ClientPool) GetStats() ClientStats {
	cp.mu.RLock()
	defer cp.mu.RUnlock()
	return cp.stats
}

func (cp *ClientPool) incrementStat(statType string) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cp.stats.TotalRequests++
	switch statType {
	case "success":
		cp.stats.SuccessRequests++
	case "failed":
		cp.stats.FailedRequests++
	case "retried":
		cp.stats.RetriedRequests++
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryable := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"network is unreachable",
		"no such host",
	}
	for _, fragment := range retryable {
		if strings.Contains(errStr, fragment) {
			return true
		}
	}
	return false
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
