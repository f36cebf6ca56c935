// Package paper produces simulated trade plans attached to alerts. Plans are
// informational only and never feed back into signal evaluation.
package paper

// R multiples for the simulated take-profit and stop-loss levels.
const (
	tpMultiple = 2.0
	slMultiple = 1.0
)

// Plan is a simulated entry with symmetric-risk exits.
type Plan struct {
	Entry      float64 `json:"entry"`
	TakeProfit float64 `json:"take_profit"`
	StopLoss   float64 `json:"stop_loss"`
	Risk       float64 `json:"risk"` // the R unit both exits are derived from
}

// BuildPlan derives a plan from the current price and a per-bar range proxy.
// When no range proxy is known, R falls back to a small fraction of price.
// A non-positive price yields no plan.
func BuildPlan(price, rangeProxy float64) (Plan, bool) {
	if price <= 0 {
		return Plan{}, false
	}

	r := rangeProxy
	if r <= 0 {
		r = price * 0.02
		if r < 0.01 {
			r = 0.01
		}
	}

	sl := price - r*slMultiple
	if sl < 0 {
		sl = 0
	}

	return Plan{
		Entry:      price,
		TakeProfit: price + r*tpMultiple,
		StopLoss:   sl,
		Risk:       r,
	}, true
}
