package providers

import (
	"errors"
	"fmt"
)

// ErrorKind classifies enrichment failures so callers can decide between
// retrying, dropping the candidate, and skipping the provider.
type ErrorKind string

const (
	// KindRateLimited means the upstream throttled us; retryable.
	KindRateLimited ErrorKind = "rate_limited"
	// KindNotFound means the instrument does not exist upstream; terminal.
	KindNotFound ErrorKind = "not_found"
	// KindTransient covers network faults and 5xx responses; retryable.
	KindTransient ErrorKind = "transient"
)

// EnrichmentError is the typed failure returned by MarketDataPort
// implementations.
type EnrichmentError struct {
	Kind ErrorKind
	ID   string
	Err  error
}

func (e *EnrichmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("enrich %s: %s: %v", e.ID, e.Kind, e.Err)
	}
	return fmt.Sprintf("enrich %s: %s", e.ID, e.Kind)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind, defaulting to transient for untyped errors
// so unknown failures stay retryable.
func KindOf(err error) ErrorKind {
	var ee *EnrichmentError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindTransient
}

// IsNotFound reports whether the error is a terminal not-found outcome.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsRateLimited reports whether the error is an upstream throttle response.
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}
