// Package config loads TokenRadar configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level runtime configuration.
type Config struct {
	Scan      ScanConfig      `yaml:"scan"`
	Provider  ProviderConfig  `yaml:"provider"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Snapshots SnapshotConfig  `yaml:"snapshots"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Cooldown  CooldownConfig  `yaml:"cooldown"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Ops       OpsConfig       `yaml:"ops"`
}

// ScanConfig controls the orchestrated detection cycle.
type ScanConfig struct {
	Interval       time.Duration `yaml:"interval"`        // cadence between cycles
	IntervalJitter time.Duration `yaml:"interval_jitter"` // random extra delay per cycle
	SoftDeadline   time.Duration `yaml:"soft_deadline"`   // abandon in-flight enrichments after this
	Workers        int           `yaml:"workers"`         // enrichment worker pool size
	MaxAlerts      int           `yaml:"max_alerts"`      // top-N alerts per cycle
}

// ProviderConfig controls the market data client.
type ProviderConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // per-call deadline
	MaxRetries     int           `yaml:"max_retries"`
	BackoffBase    time.Duration `yaml:"backoff_base"`
	BackoffMax     time.Duration `yaml:"backoff_max"`
	RPS            float64       `yaml:"rps"`   // per-host request budget
	Burst          int           `yaml:"burst"` // token bucket burst
	MaxConcurrency int           `yaml:"max_concurrency"`
	JitterMinMs    int           `yaml:"jitter_min_ms"` // pre-call pacing jitter
	JitterMaxMs    int           `yaml:"jitter_max_ms"`
}

// DiscoveryConfig controls the candidate universe build.
type DiscoveryConfig struct {
	Limit        int           `yaml:"limit"`         // max candidates per cycle
	FeedTimeout  time.Duration `yaml:"feed_timeout"`  // per-feed deadline
	WebsocketURL string        `yaml:"websocket_url"` // optional mover feed, empty disables
	ChainID      string        `yaml:"chain_id"`
}

// SnapshotConfig controls the rolling snapshot ring.
type SnapshotConfig struct {
	MaxRecords int `yaml:"max_records"` // global retention cap, oldest evicted
}

// ScoringConfig carries the tunable scorer constants. The formulas are fixed;
// every weight, baseline and threshold here is configuration.
type ScoringConfig struct {
	BaselineVol1h  float64 `yaml:"baseline_vol_1h"`  // participation baseline, $ 1h volume
	BaselineVol24h float64 `yaml:"baseline_vol_24h"` // participation baseline, $ 24h volume
	BaselineLiqUSD float64 `yaml:"baseline_liq_usd"` // liquidity ratio baseline

	VolShockRatioMin float64 `yaml:"vol_shock_ratio_min"` // 15m-vs-45m surge trigger
	VolShockMinVol1h float64 `yaml:"vol_shock_min_vol_1h"`

	ExhaustionExtend5m float64 `yaml:"exhaustion_extend_5m"` // 5m change considered extended
	ExhaustionExtend24 float64 `yaml:"exhaustion_extend_24h"`

	ExceptionGateBonus float64 `yaml:"exception_gate_bonus"`

	DecayHalfLife time.Duration `yaml:"decay_half_life"` // confidence half-life
}

// CooldownConfig controls alert deduplication.
type CooldownConfig struct {
	Window time.Duration `yaml:"window"` // minimum quiet period per id
}

// AlertsConfig holds dispatch destinations. Empty credentials disable a
// destination rather than erroring.
type AlertsConfig struct {
	TelegramToken      string `yaml:"telegram_token"`
	TelegramChatFree   string `yaml:"telegram_chat_free"`
	TelegramChatElite  string `yaml:"telegram_chat_elite"`
	DiscordWebhookURL  string `yaml:"discord_webhook_url"`
	PaperTradingEnable bool   `yaml:"paper_trading_enable"`
}

// RedisConfig enables the Redis-backed stores when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig enables the alert history log when DSN is set.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// OpsConfig controls the operational HTTP surface.
type OpsConfig struct {
	ListenAddr string `yaml:"listen_addr"` // empty disables the ops server
}

// Default returns a configuration with production-shaped defaults. Constants
// follow the tuned values of the reference deployment.
func Default() Config {
	return Config{
		Scan: ScanConfig{
			Interval:       3 * time.Minute,
			IntervalJitter: 15 * time.Second,
			SoftDeadline:   90 * time.Second,
			Workers:        8,
			MaxAlerts:      5,
		},
		Provider: ProviderConfig{
			BaseURL:        "https://api.dexscreener.com",
			RequestTimeout: 8 * time.Second,
			MaxRetries:     3,
			BackoffBase:    time.Second,
			BackoffMax:     30 * time.Second,
			RPS:            4,
			Burst:          2,
			MaxConcurrency: 8,
			JitterMinMs:    50,
			JitterMaxMs:    150,
		},
		Discovery: DiscoveryConfig{
			Limit:       60,
			FeedTimeout: 10 * time.Second,
			ChainID:     "solana",
		},
		Snapshots: SnapshotConfig{
			MaxRecords: 2000,
		},
		Scoring: ScoringConfig{
			BaselineVol1h:      250_000,
			BaselineVol24h:     1_500_000,
			BaselineLiqUSD:     100_000,
			VolShockRatioMin:   2.0,
			VolShockMinVol1h:   100_000,
			ExhaustionExtend5m: 8.0,
			ExhaustionExtend24: 80.0,
			ExceptionGateBonus: 8.0,
			DecayHalfLife:      45 * time.Minute,
		},
		Cooldown: CooldownConfig{
			Window: 30 * time.Minute,
		},
		Ops: OpsConfig{
			ListenAddr: ":9180",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if c.Scan.MaxAlerts <= 0 {
		return fmt.Errorf("scan.max_alerts must be positive, got %d", c.Scan.MaxAlerts)
	}
	if c.Provider.RPS <= 0 {
		return fmt.Errorf("provider.rps must be positive, got %f", c.Provider.RPS)
	}
	if c.Cooldown.Window <= 0 {
		return fmt.Errorf("cooldown.window must be positive, got %s", c.Cooldown.Window)
	}
	return nil
}
