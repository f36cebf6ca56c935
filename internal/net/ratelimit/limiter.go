// Package ratelimit provides per-host request pacing using token buckets.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per upstream host so that concurrent
// workers targeting the same provider share a single request budget.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewLimiter creates a limiter with the specified per-host RPS and burst.
func NewLimiter(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (l *Limiter) hostLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring the write lock
	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[host] = limiter
	return limiter
}

// Wait blocks until a request for the host is allowed or the context is
// cancelled.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	return l.hostLimiter(host).Wait(ctx)
}

// Allow reports whether a request for the host may proceed immediately.
func (l *Limiter) Allow(host string) bool {
	return l.hostLimiter(host).Allow()
}

// SetRPS updates the request budget for all known hosts.
func (l *Limiter) SetRPS(rps float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rps = rps
	for _, limiter := range l.limiters {
		limiter.SetLimit(rate.Limit(rps))
	}
}

// Hosts returns the hosts that currently hold a bucket.
func (l *Limiter) Hosts() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	hosts := make([]string, 0, len(l.limiters))
	for host := range l.limiters {
		hosts = append(hosts, host)
	}
	return hosts
}
