package alerts

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mirrorx/tokenradar/internal/domain"
)

// Destination delivers one formatted message somewhere. Errors are
// destination-local.
type Destination interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// DispatchResult is the per-destination outcome for one signal.
type DispatchResult struct {
	Destination string
	Err         error
}

// Dispatcher formats a signal once and fans it out to every destination.
type Dispatcher struct {
	formatter *Formatter
}

func NewDispatcher(formatter *Formatter) *Dispatcher {
	return &Dispatcher{formatter: formatter}
}

// Dispatch delivers the signal to all destinations. A failing destination is
// recorded and logged but never blocks the others.
func (d *Dispatcher) Dispatch(ctx context.Context, sig domain.Signal, destinations []Destination) []DispatchResult {
	msg := d.formatter.Format(sig)

	results := make([]DispatchResult, 0, len(destinations))
	for _, dest := range destinations {
		err := dest.Send(ctx, msg)
		if err != nil {
			log.Warn().Err(err).
				Str("destination", dest.Name()).
				Str("id", sig.CandidateID).
				Msg("Alert delivery failed")
		} else {
			log.Info().
				Str("destination", dest.Name()).
				Str("id", sig.CandidateID).
				Float64("confidence", sig.Confidence).
				Msg("Alert delivered")
		}
		results = append(results, DispatchResult{Destination: dest.Name(), Err: err})
	}
	return results
}
