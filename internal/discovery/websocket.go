package discovery

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mirrorx/tokenradar/internal/domain"
)

const (
	moverStaleAfter  = 10 * time.Minute
	reconnectBackoff = 5 * time.Second
	maxTrackedMovers = 500
)

// WebsocketMoverFeed consumes a live 1-minute OHLCV stream and keeps the
// instruments with the strongest recent single-candle impulse. Unlike the
// HTTP feeds it is push-driven: Run maintains the set in the background and
// List just reads it.
type WebsocketMoverFeed struct {
	url    string
	dialer *websocket.Dialer

	mu     sync.Mutex
	movers map[string]moverState
}

type moverState struct {
	impulse  float64 // percent change of the latest 1m candle
	lastSeen time.Time
}

// priceEvent is the stream's candle message.
type priceEvent struct {
	Type string `json:"type"`
	Data struct {
		Address  string  `json:"address"`
		Symbol   string  `json:"symbol"`
		Open     float64 `json:"o"`
		Close    float64 `json:"c"`
		Volume   float64 `json:"v"`
		UnixTime int64   `json:"unixTime"`
	} `json:"data"`
}

// NewWebsocketMoverFeed creates the feed for the given stream URL.
func NewWebsocketMoverFeed(url string) *WebsocketMoverFeed {
	return &WebsocketMoverFeed{
		url:    url,
		dialer: websocket.DefaultDialer,
		movers: make(map[string]moverState),
	}
}

// Run consumes the stream until the context is cancelled, reconnecting with a
// fixed backoff after any failure.
func (f *WebsocketMoverFeed) Run(ctx context.Context) {
	for {
		if err := f.consume(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("url", f.url).Msg("Mover stream dropped, reconnecting")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (f *WebsocketMoverFeed) consume(ctx context.Context) error {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock ReadMessage when the context ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	log.Info().Str("url", f.url).Msg("Mover stream connected")
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f.ingest(payload)
	}
}

// ingest records one candle. Exported indirectly through Run; split out so
// tests can drive the feed without a live socket.
func (f *WebsocketMoverFeed) ingest(payload []byte) {
	var event priceEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return
	}
	if event.Type != "PRICE_DATA" || event.Data.Address == "" || event.Data.Open <= 0 {
		return
	}

	impulse := (event.Data.Close - event.Data.Open) / event.Data.Open * 100

	f.mu.Lock()
	defer f.mu.Unlock()

	f.movers[event.Data.Address] = moverState{
		impulse:  impulse,
		lastSeen: time.Now().UTC(),
	}

	if len(f.movers) > maxTrackedMovers {
		f.evictStaleLocked()
	}
}

// evictStaleLocked drops aged entries, and if everything is fresh, the
// weakest impulses, to keep the set bounded.
func (f *WebsocketMoverFeed) evictStaleLocked() {
	cutoff := time.Now().UTC().Add(-moverStaleAfter)
	for addr, st := range f.movers {
		if st.lastSeen.Before(cutoff) {
			delete(f.movers, addr)
		}
	}
	for len(f.movers) > maxTrackedMovers {
		weakest := ""
		weakestImpulse := 0.0
		for addr, st := range f.movers {
			if weakest == "" || st.impulse < weakestImpulse {
				weakest = addr
				weakestImpulse = st.impulse
			}
		}
		delete(f.movers, weakest)
	}
}

func (f *WebsocketMoverFeed) Name() string { return "websocket_movers" }

// List returns the freshest, strongest movers seen on the stream.
func (f *WebsocketMoverFeed) List(_ context.Context, limit int) ([]domain.Candidate, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-moverStaleAfter)

	f.mu.Lock()
	type mover struct {
		id      string
		impulse float64
	}
	fresh := make([]mover, 0, len(f.movers))
	for addr, st := range f.movers {
		if st.lastSeen.After(cutoff) && st.impulse > 0 {
			fresh = append(fresh, mover{id: addr, impulse: st.impulse})
		}
	}
	f.mu.Unlock()

	sort.Slice(fresh, func(i, j int) bool { return fresh[i].impulse > fresh[j].impulse })
	if len(fresh) > limit {
		fresh = fresh[:limit]
	}

	out := make([]domain.Candidate, 0, len(fresh))
	for _, m := range fresh {
		out = append(out, domain.Candidate{
			ID:           m.id,
			Source:       domain.SourceSnapshotMover,
			DiscoveredAt: now,
			PreScore:     m.impulse,
		})
	}
	return out, nil
}
