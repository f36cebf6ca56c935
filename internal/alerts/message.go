// Package alerts formats surviving signals into destination messages and
// delivers them. A delivery failure is destination-local and never fails the
// cycle that produced the signal.
package alerts

import (
	"fmt"
	"strings"

	"github.com/mirrorx/tokenradar/internal/domain"
	"github.com/mirrorx/tokenradar/internal/paper"
)

// Message is the two renderings of one signal. Every destination receives
// both and picks the one matching its audience; nothing downstream re-scores.
type Message struct {
	Terse string // free tier: headline only
	Full  string // elite tier: full breakdown
}

// Formatter renders signals. When paperPlans is set, elite messages carry a
// simulated trade plan line.
type Formatter struct {
	paperPlans bool
}

func NewFormatter(paperPlans bool) *Formatter {
	return &Formatter{paperPlans: paperPlans}
}

func (f *Formatter) Format(sig domain.Signal) Message {
	return Message{
		Terse: f.terse(sig),
		Full:  f.full(sig),
	}
}

func (f *Formatter) terse(sig domain.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s is moving: %+.1f%% (1h), %+.1f%% (24h)\n",
		headlineEmoji(sig), displayName(sig),
		sig.Snapshot.Change(domain.Window1h), sig.Snapshot.Change(domain.Window24h))
	fmt.Fprintf(&b, "Confidence %.0f/100 · stage %s", sig.Confidence, sig.StageTag)
	return b.String()
}

func (f *Formatter) full(sig domain.Signal) string {
	snap := sig.Snapshot

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s Signal\n", headlineEmoji(sig), displayName(sig))
	fmt.Fprintf(&b, "Price: $%s\n", formatPrice(snap.Price))
	fmt.Fprintf(&b, "Change: %+.1f%% (5m) · %+.1f%% (1h) · %+.1f%% (24h)\n",
		snap.Change(domain.Window5m), snap.Change(domain.Window1h), snap.Change(domain.Window24h))
	fmt.Fprintf(&b, "Volume: $%.0f (1h) · $%.0f (24h)\n",
		snap.Vol(domain.Window1h), snap.Vol(domain.Window24h))
	fmt.Fprintf(&b, "Liquidity: $%.0f\n", snap.LiquidityUSD)
	fmt.Fprintf(&b, "Gate: %s · Stage: %s · Momentum: %s\n",
		sig.Gate, sig.StageTag, sig.Acceleration.Hint)
	fmt.Fprintf(&b, "Confidence: %.0f/100\n", sig.Confidence)

	if sig.VolumeShock {
		b.WriteString("⚡ Acute volume surge in the last 15m\n")
	}
	if sig.ExhaustionWarning {
		b.WriteString("⚠️ Exhaustion risk: big move on thin participation\n")
	}
	if sig.ReversalWarning {
		b.WriteString("⚠️ Short-term reversal forming\n")
	}

	if f.paperPlans {
		if plan, ok := paper.BuildPlan(snap.Price, 0); ok {
			fmt.Fprintf(&b, "Paper plan (simulated, not advice): entry $%s · TP $%s · SL $%s\n",
				formatPrice(plan.Entry), formatPrice(plan.TakeProfit), formatPrice(plan.StopLoss))
		}
	}

	if snap.URL != "" {
		fmt.Fprintf(&b, "%s\n", snap.URL)
	}
	return b.String()
}

func headlineEmoji(sig domain.Signal) string {
	switch {
	case sig.Confidence >= 85:
		return "🚀"
	case sig.VolumeShock:
		return "⚡"
	case sig.StageTag == domain.StageEarly:
		return "🌱"
	default:
		return "📈"
	}
}

func displayName(sig domain.Signal) string {
	if sig.Snapshot.Symbol != "" {
		return sig.Snapshot.Symbol
	}
	return sig.CandidateID
}

// formatPrice keeps microcap prices readable without padding large ones.
func formatPrice(p float64) string {
	switch {
	case p >= 1:
		return fmt.Sprintf("%.2f", p)
	case p >= 0.001:
		return fmt.Sprintf("%.4f", p)
	default:
		return fmt.Sprintf("%.8f", p)
	}
}
