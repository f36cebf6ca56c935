// Package gates filters enriched candidates through threshold rules. A
// candidate that passes no gate is dropped silently; gate rejection is an
// expected outcome, not an error.
package gates

import (
	"github.com/mirrorx/tokenradar/internal/config"
	"github.com/mirrorx/tokenradar/internal/domain"
)

// GateNormal is the name reported when the standard gate passes.
const GateNormal = "normal"

// Engine evaluates snapshots against one normal gate and an ordered list of
// exception gates. Exception gates trade a lower liquidity floor for much
// higher movement/volume floors; they exist because the normal gate
// systematically misses early-stage movers that have not yet accumulated
// liquidity.
type Engine struct {
	profile config.GateProfile
}

// NewEngine creates an engine from a gate profile.
func NewEngine(profile config.GateProfile) *Engine {
	return &Engine{profile: profile}
}

// Evaluate runs the normal gate first, then the exception gates in priority
// order. The first gate that passes determines the reported name.
func (e *Engine) Evaluate(snap domain.MetricSnapshot) (bool, string) {
	if e.passesNormal(snap) {
		return true, GateNormal
	}
	for _, exc := range e.profile.Exceptions {
		if passesException(snap, exc) {
			return true, exc.Name
		}
	}
	return false, ""
}

func (e *Engine) passesNormal(snap domain.MetricSnapshot) bool {
	g := e.profile.Normal

	if snap.LiquidityUSD < g.MinLiquidityUSD {
		return false
	}
	if snap.Vol(domain.Window1h) < g.MinVol1hUSD && snap.Vol(domain.Window24h) < g.MinVol24hUSD {
		return false
	}

	// Movement on at least one window
	return snap.Change(domain.Window5m) >= g.MinMovePct ||
		snap.Change(domain.Window1h) >= g.MinMovePct ||
		snap.Change(domain.Window24h) >= g.MinMovePct
}

func passesException(snap domain.MetricSnapshot, g config.ExceptionGate) bool {
	if snap.LiquidityUSD < g.MinLiquidityUSD {
		return false
	}
	if g.MinVol1hUSD > 0 && snap.Vol(domain.Window1h) < g.MinVol1hUSD {
		return false
	}
	if g.MinVol24hUSD > 0 && snap.Vol(domain.Window24h) < g.MinVol24hUSD {
		return false
	}

	// At least one configured movement floor must be met; a zero floor is
	// disabled rather than trivially satisfied.
	moved := false
	configured := false
	if g.MinChange5mPct > 0 {
		configured = true
		moved = moved || snap.Change(domain.Window5m) >= g.MinChange5mPct
	}
	if g.MinChange1hPct > 0 {
		configured = true
		moved = moved || snap.Change(domain.Window1h) >= g.MinChange1hPct
	}
	if g.MinChange24hPct > 0 {
		configured = true
		moved = moved || snap.Change(domain.Window24h) >= g.MinChange24hPct
	}
	if !configured {
		return false
	}
	return moved
}

// IsException reports whether a gate name refers to an exception gate in this
// engine's profile.
func (e *Engine) IsException(gateName string) bool {
	for _, exc := range e.profile.Exceptions {
		if exc.Name == gateName {
			return true
		}
	}
	return false
}
