package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/mirrorx/tokenradar/internal/config"
	"github.com/mirrorx/tokenradar/internal/domain"
	"github.com/mirrorx/tokenradar/internal/infrastructure/httpclient"
	"github.com/mirrorx/tokenradar/internal/net/ratelimit"
)

// DexScreener implements MarketDataPort against the DexScreener pair API.
type DexScreener struct {
	baseURL string
	chainID string
	client  *httpclient.ClientPool
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewDexScreener builds the provider. Pool and limiter are shared with
// discovery so all DexScreener traffic draws from one per-host budget.
func NewDexScreener(cfg config.ProviderConfig, chainID string, pool *httpclient.ClientPool, limiter *ratelimit.Limiter) *DexScreener {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dexscreener",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &DexScreener{
		baseURL: cfg.BaseURL,
		chainID: chainID,
		client:  pool,
		limiter: limiter,
		breaker: breaker,
	}
}

// Enrich fetches the pair list for an instrument and maps the deepest pair
// into a MetricSnapshot. Rate-limit retries and pacing happen in the shared
// client pool; this method only classifies the terminal outcome.
func (p *DexScreener) Enrich(ctx context.Context, id string) (domain.MetricSnapshot, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", p.baseURL, url.PathEscape(id))

	body, err := p.getJSON(ctx, id, endpoint)
	if err != nil {
		return domain.MetricSnapshot{}, err
	}

	var payload struct {
		Pairs []pairPayload `json:"pairs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.MetricSnapshot{}, &EnrichmentError{Kind: KindTransient, ID: id, Err: err}
	}

	best, ok := deepestPair(payload.Pairs, p.chainID)
	if !ok {
		return domain.MetricSnapshot{}, &EnrichmentError{Kind: KindNotFound, ID: id}
	}

	snap := best.toSnapshot(id)
	log.Debug().
		Str("id", id).
		Str("symbol", snap.Symbol).
		Float64("liquidity_usd", snap.LiquidityUSD).
		Msg("Enriched candidate")
	return snap, nil
}

func (p *DexScreener) getJSON(ctx context.Context, id, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &EnrichmentError{Kind: KindTransient, ID: id, Err: err}
	}

	if err := p.limiter.Wait(ctx, req.URL.Host); err != nil {
		return nil, &EnrichmentError{Kind: KindTransient, ID: id, Err: err}
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		resp, err := p.client.Do(ctx, req)
		if err != nil {
			return nil, &EnrichmentError{Kind: KindTransient, ID: id, Err: err}
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return readAll(resp)
		case resp.StatusCode == http.StatusNotFound:
			return nil, &EnrichmentError{Kind: KindNotFound, ID: id}
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, &EnrichmentError{Kind: KindRateLimited, ID: id, Err: fmt.Errorf("HTTP 429 after retries")}
		default:
			return nil, &EnrichmentError{
				Kind: KindTransient,
				ID:   id,
				Err:  fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
			}
		}
	})
	if err != nil {
		if ee, ok := err.(*EnrichmentError); ok {
			return nil, ee
		}
		// Breaker open or half-open rejection
		return nil, &EnrichmentError{Kind: KindTransient, ID: id, Err: err}
	}

	return result.([]byte), nil
}

// pairPayload mirrors the slice of the DexScreener pair object we consume.
type pairPayload struct {
	ChainID   string `json:"chainId"`
	URL       string `json:"url"`
	PriceUSD  string `json:"priceUsd"`
	BaseToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume      map[string]float64 `json:"volume"`
	PriceChange map[string]float64 `json:"priceChange"`
}

func deepestPair(pairs []pairPayload, chainID string) (pairPayload, bool) {
	var best pairPayload
	found := false
	for _, pair := range pairs {
		if chainID != "" && pair.ChainID != chainID {
			continue
		}
		if !found || pair.Liquidity.USD > best.Liquidity.USD {
			best = pair
			found = true
		}
	}
	return best, found
}

func (pp pairPayload) toSnapshot(id string) domain.MetricSnapshot {
	price, _ := strconv.ParseFloat(pp.PriceUSD, 64)

	volume := map[domain.Window]float64{
		domain.Window5m:  pp.Volume["m5"],
		domain.Window1h:  pp.Volume["h1"],
		domain.Window24h: pp.Volume["h24"],
	}
	change := map[domain.Window]float64{
		domain.Window5m:  pp.PriceChange["m5"],
		domain.Window1h:  pp.PriceChange["h1"],
		domain.Window24h: pp.PriceChange["h24"],
	}

	return domain.MetricSnapshot{
		ID:                  id,
		Symbol:              pp.BaseToken.Symbol,
		Timestamp:           time.Now().UTC(),
		Price:               price,
		LiquidityUSD:        pp.Liquidity.USD,
		Volume:              volume,
		PercentChange:       change,
		VolumeSurgeRatio15m: surgeRatio15m(volume[domain.Window5m], volume[domain.Window1h]),
		URL:                 pp.URL,
	}
}

// surgeRatio15m approximates last-15m volume against the preceding 45m
// average from the 5m and 1h window totals. The 5m window is extrapolated to
// 15m; the remainder of the hour supplies the baseline.
func surgeRatio15m(vol5m, vol1h float64) float64 {
	last15 := vol5m * 3
	prior45 := vol1h - last15
	if prior45 <= 0 {
		return 0
	}
	return last15 / (prior45 / 3)
}
