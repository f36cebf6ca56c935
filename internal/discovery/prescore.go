package discovery

import (
	"math"

	"github.com/mirrorx/tokenradar/internal/domain"
)

const baitPenalty = 0.35

// PreScore ranks a candidate with retained metrics ahead of enrichment so
// the merge order favors likely real movers over junk. Tiny liquidity paired
// with a giant percent move is the classic bait shape and gets cut hard.
func PreScore(snap domain.MetricSnapshot) float64 {
	liq := math.Max(snap.LiquidityUSD, 0)
	vol24 := math.Max(snap.Vol(domain.Window24h), 0)
	vol1h := math.Max(snap.Vol(domain.Window1h), 0)
	ch1h := math.Max(snap.Change(domain.Window1h), 0)
	ch5m := math.Max(snap.Change(domain.Window5m), 0)

	score := math.Min(liq/100_000, 8)*10 +
		math.Min(vol24/2_000_000, 8)*8 +
		math.Min(vol1h/500_000, 8)*7 +
		ch1h*0.35 +
		ch5m*0.65

	if liq < 10_000 && (ch1h > 200 || ch5m > 80) {
		score *= baitPenalty
	}
	return score
}
