// Package providers implements the market data boundary. Raw upstream
// payloads are mapped into domain.MetricSnapshot here and never cross this
// boundary untyped.
package providers

import (
	"context"

	"github.com/mirrorx/tokenradar/internal/domain"
)

// MarketDataPort returns a point-in-time metric snapshot for an instrument.
// Failures carry an ErrorKind; only RateLimited and Transient kinds are worth
// retrying.
type MarketDataPort interface {
	Enrich(ctx context.Context, id string) (domain.MetricSnapshot, error)
}
