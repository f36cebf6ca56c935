package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mirrorx/tokenradar/internal/domain"
	"github.com/mirrorx/tokenradar/internal/infrastructure/httpclient"
	"github.com/mirrorx/tokenradar/internal/net/ratelimit"
)

// dexClient is the shared plumbing for the DexScreener discovery endpoints.
type dexClient struct {
	baseURL string
	chainID string
	pool    *httpclient.ClientPool
	limiter *ratelimit.Limiter
}

// NewDexClient builds the shared DexScreener discovery client. Pool and
// limiter are shared with enrichment so one host budget covers everything.
func NewDexClient(baseURL, chainID string, pool *httpclient.ClientPool, limiter *ratelimit.Limiter) *DexClient {
	return &DexClient{dexClient{
		baseURL: baseURL,
		chainID: chainID,
		pool:    pool,
		limiter: limiter,
	}}
}

// DexClient exposes feed constructors over the shared plumbing.
type DexClient struct {
	dexClient
}

// tokenItem mirrors the boost/profile/takeover list entries.
type tokenItem struct {
	ChainID      string  `json:"chainId"`
	TokenAddress string  `json:"tokenAddress"`
	Address      string  `json:"address"`
	Amount       float64 `json:"amount"`
	TotalAmount  float64 `json:"totalAmount"`
}

func (c *dexClient) addr(item tokenItem) string {
	if item.TokenAddress != "" {
		return item.TokenAddress
	}
	return item.Address
}

func (c *dexClient) getList(ctx context.Context, path string) ([]tokenItem, error) {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx, req.URL.Host); err != nil {
		return nil, err
	}

	resp, err := c.pool.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var items []tokenItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}

func (c *dexClient) toCandidates(items []tokenItem, source domain.Source, limit int) []domain.Candidate {
	now := time.Now().UTC()
	out := make([]domain.Candidate, 0, len(items))
	for _, item := range items {
		if c.chainID != "" && item.ChainID != c.chainID {
			continue
		}
		addr := c.addr(item)
		if addr == "" {
			continue
		}
		out = append(out, domain.Candidate{
			ID:           addr,
			Source:       source,
			DiscoveredAt: now,
			PreScore:     item.Amount + item.TotalAmount,
		})
		if len(out) >= limit {
			break
		}
	}
	return out
}

// BoostFeed surfaces promoted tokens from the top and latest boost lists.
type BoostFeed struct {
	client *DexClient
}

func (c *DexClient) Boosts() *BoostFeed { return &BoostFeed{client: c} }

func (f *BoostFeed) Name() string { return "dexscreener_boosts" }

func (f *BoostFeed) List(ctx context.Context, limit int) ([]domain.Candidate, error) {
	top, topErr := f.client.getList(ctx, "/token-boosts/top/v1")
	latest, latestErr := f.client.getList(ctx, "/token-boosts/latest/v1")
	if topErr != nil && latestErr != nil {
		return nil, fmt.Errorf("boosts top: %v; latest: %w", topErr, latestErr)
	}
	return f.client.toCandidates(append(top, latest...), domain.SourceBoost, limit), nil
}

// ProfileFeed surfaces tokens with freshly published profiles.
type ProfileFeed struct {
	client *DexClient
}

func (c *DexClient) Profiles() *ProfileFeed { return &ProfileFeed{client: c} }

func (f *ProfileFeed) Name() string { return "dexscreener_profiles" }

func (f *ProfileFeed) List(ctx context.Context, limit int) ([]domain.Candidate, error) {
	items, err := f.client.getList(ctx, "/token-profiles/latest/v1")
	if err != nil {
		return nil, err
	}
	return f.client.toCandidates(items, domain.SourceProfile, limit), nil
}

// TakeoverFeed surfaces community takeover announcements.
type TakeoverFeed struct {
	client *DexClient
}

func (c *DexClient) Takeovers() *TakeoverFeed { return &TakeoverFeed{client: c} }

func (f *TakeoverFeed) Name() string { return "dexscreener_takeovers" }

func (f *TakeoverFeed) List(ctx context.Context, limit int) ([]domain.Candidate, error) {
	items, err := f.client.getList(ctx, "/community-takeovers/latest/v1")
	if err != nil {
		return nil, err
	}
	return f.client.toCandidates(items, domain.SourceTakeover, limit), nil
}
