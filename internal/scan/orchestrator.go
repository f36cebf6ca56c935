// Package scan runs one full detection cycle: discover candidates, enrich
// them through the market data port, gate, score, dedupe, and dispatch.
package scan

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mirrorx/tokenradar/internal/alerts"
	"github.com/mirrorx/tokenradar/internal/config"
	"github.com/mirrorx/tokenradar/internal/cooldown"
	"github.com/mirrorx/tokenradar/internal/discovery"
	"github.com/mirrorx/tokenradar/internal/domain"
	"github.com/mirrorx/tokenradar/internal/gates"
	"github.com/mirrorx/tokenradar/internal/persistence"
	"github.com/mirrorx/tokenradar/internal/providers"
	"github.com/mirrorx/tokenradar/internal/scoring"
	"github.com/mirrorx/tokenradar/internal/snapshot"
	"github.com/mirrorx/tokenradar/internal/telemetry/metrics"
)

// ErrDiscoveryUnavailable means no discovery feed could be reached at all. A
// cycle where the feeds answer but surface nothing, or where candidates are
// discovered and none alert, is a normal quiet cycle, not an error.
var ErrDiscoveryUnavailable = errors.New("no discovery feed reachable")

// Deps are the pipeline collaborators. History may be nil.
type Deps struct {
	Discovery    *discovery.Engine
	Market       providers.MarketDataPort
	Store        snapshot.Store
	Gates        *gates.Engine
	Scorer       *scoring.Scorer
	Decay        *scoring.Decay
	Cooldown     cooldown.Controller
	Dispatcher   *alerts.Dispatcher
	Destinations []alerts.Destination
	Metrics      *metrics.Registry
	History      *persistence.History
}

// CycleReport summarizes one cycle for logging and health reporting. Signals
// holds the ranked, trimmed result set in dispatch order so callers can
// consume it without wiring a destination.
type CycleReport struct {
	StartedAt  time.Time
	Duration   time.Duration
	Discovered int
	Enriched   int
	Gated      int
	Alerted    int
	Suppressed int
	Regime     scoring.Regime
	Signals    []domain.Signal
}

// Orchestrator drives the detection pipeline.
type Orchestrator struct {
	cfg  config.ScanConfig
	disc config.DiscoveryConfig
	deps Deps

	mu   sync.Mutex
	last CycleReport
	ok   bool
}

func NewOrchestrator(cfg config.ScanConfig, disc config.DiscoveryConfig, deps Deps) *Orchestrator {
	return &Orchestrator{cfg: cfg, disc: disc, deps: deps}
}

// LastCycle returns the most recent cycle report and whether it succeeded.
func (o *Orchestrator) LastCycle() (CycleReport, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last, o.ok
}

// RunCycle executes one detection cycle. Enrichment runs on a bounded worker
// pool under the soft deadline; a candidate that cannot be enriched in time
// is dropped, never retried within the cycle.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleReport, error) {
	started := time.Now().UTC()
	report := CycleReport{StartedAt: started}

	cycleCtx, cancel := context.WithTimeout(ctx, o.cfg.SoftDeadline)
	defer cancel()

	candidates, reachable := o.deps.Discovery.Discover(cycleCtx, o.disc.Limit)
	report.Discovered = len(candidates)
	for _, c := range candidates {
		o.deps.Metrics.CandidatesByFeed.WithLabelValues(string(c.Source)).Inc()
	}
	if len(candidates) == 0 && reachable == 0 {
		o.finish(&report, started, false)
		o.deps.Metrics.ObserveCycle(report.Duration, "unavailable")
		return report, ErrDiscoveryUnavailable
	}

	signals := o.enrichAndEvaluate(cycleCtx, candidates, &report)

	regime := scoring.ClassifyRegime(signals)
	report.Regime = regime
	o.deps.Metrics.ActiveRegime.Set(regimeGaugeValue(regime))

	now := time.Now().UTC()
	for i := range signals {
		adjusted := scoring.AdjustForRegime(signals[i].Confidence, regime)
		signals[i].Confidence = o.deps.Decay.Apply(adjusted, signals[i].CreatedAt, now)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Confidence > signals[j].Confidence
	})
	if len(signals) > o.cfg.MaxAlerts {
		signals = signals[:o.cfg.MaxAlerts]
	}
	report.Signals = signals

	for _, sig := range signals {
		if !o.deps.Cooldown.CanAlert(sig.CandidateID, sig.Confidence) {
			report.Suppressed++
			o.deps.Metrics.AlertsSuppressed.Inc()
			log.Debug().Str("id", sig.CandidateID).Float64("confidence", sig.Confidence).
				Msg("Alert suppressed by cooldown")
			continue
		}

		results := o.deps.Dispatcher.Dispatch(ctx, sig, o.deps.Destinations)
		for _, res := range results {
			if res.Err != nil {
				o.deps.Metrics.DispatchFailures.WithLabelValues(res.Destination).Inc()
			}
		}

		report.Alerted++
		o.deps.Metrics.AlertsSent.WithLabelValues(string(sig.Source)).Inc()
		o.deps.History.Append(ctx, sig)
	}

	o.finish(&report, started, true)
	o.deps.Metrics.ObserveCycle(report.Duration, "ok")
	log.Info().
		Int("discovered", report.Discovered).
		Int("enriched", report.Enriched).
		Int("gated", report.Gated).
		Int("alerted", report.Alerted).
		Int("suppressed", report.Suppressed).
		Str("regime", string(regime)).
		Dur("took", report.Duration).
		Msg("Cycle complete")
	return report, nil
}

// enrichAndEvaluate fans candidates out over the worker pool and returns the
// signals that survived gating and scoring.
func (o *Orchestrator) enrichAndEvaluate(ctx context.Context, candidates []domain.Candidate, report *CycleReport) []domain.Signal {
	workers := o.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		signals []domain.Signal
		wg      sync.WaitGroup
	)
	jobs := make(chan domain.Candidate)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cand := range jobs {
				sig, outcome := o.evaluate(ctx, cand)
				mu.Lock()
				switch outcome {
				case outcomeSignal:
					report.Enriched++
					report.Gated++
					signals = append(signals, sig)
				case outcomeGated:
					report.Enriched++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, cand := range candidates {
		select {
		case jobs <- cand:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return signals
}

type evalOutcome int

const (
	outcomeDropped evalOutcome = iota
	outcomeGated
	outcomeSignal
)

func (o *Orchestrator) evaluate(ctx context.Context, cand domain.Candidate) (domain.Signal, evalOutcome) {
	snap, err := o.deps.Market.Enrich(ctx, cand.ID)
	if err != nil {
		kind := providers.KindOf(err)
		o.deps.Metrics.EnrichmentOutcomes.WithLabelValues(string(kind)).Inc()
		if kind == providers.KindRateLimited {
			log.Warn().Str("id", cand.ID).Msg("Enrichment rate limited")
		} else {
			log.Debug().Err(err).Str("id", cand.ID).Msg("Enrichment failed")
		}
		return domain.Signal{}, outcomeDropped
	}
	o.deps.Metrics.EnrichmentOutcomes.WithLabelValues("ok").Inc()

	// The provider sees one point in time; the pop-then-downtick shape needs
	// the prior two retained snapshots.
	snap.MicroReversal = microReversal(snap, o.deps.Store.RecentByID(cand.ID, 2))

	o.deps.Store.Record(snap)
	accel := o.deps.Store.ComputeAcceleration(cand.ID)

	ok, gateName := o.deps.Gates.Evaluate(snap)
	if !ok {
		o.deps.Metrics.GateDrops.Inc()
		return domain.Signal{}, outcomeGated
	}
	o.deps.Metrics.GatePasses.WithLabelValues(gateName).Inc()

	confidence, ann := o.deps.Scorer.ScoreWithAnnotations(snap, accel, gateName)

	return domain.Signal{
		CandidateID:       cand.ID,
		Source:            cand.Source,
		Snapshot:          snap,
		Acceleration:      accel,
		Gate:              gateName,
		Confidence:        confidence,
		StageTag:          ann.Stage,
		ReversalWarning:   ann.ReversalWarning,
		ExhaustionWarning: ann.ExhaustionWarning,
		VolumeShock:       ann.VolumeShock,
		CreatedAt:         snap.Timestamp,
	}, outcomeSignal
}

// microReversal reports a pop-then-downtick: the latest price ticked below
// the prior snapshot while that prior snapshot was itself a local high.
func microReversal(current domain.MetricSnapshot, prior []domain.MetricSnapshot) bool {
	if len(prior) < 2 {
		return false
	}
	return current.Price < prior[0].Price && prior[0].Price > prior[1].Price
}

func (o *Orchestrator) finish(report *CycleReport, started time.Time, ok bool) {
	report.Duration = time.Since(started)
	o.mu.Lock()
	o.last = *report
	o.ok = ok
	o.mu.Unlock()
}

func regimeGaugeValue(r scoring.Regime) float64 {
	switch r {
	case scoring.RegimeDead:
		return 1
	case scoring.RegimeChoppy:
		return 2
	case scoring.RegimeMomentum:
		return 3
	case scoring.RegimeMania:
		return 4
	default:
		return 0
	}
}
