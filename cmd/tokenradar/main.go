package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	redisv8 "github.com/go-redis/redis/v8"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/mirrorx/tokenradar/internal/alerts"
	"github.com/mirrorx/tokenradar/internal/config"
	"github.com/mirrorx/tokenradar/internal/cooldown"
	"github.com/mirrorx/tokenradar/internal/discovery"
	"github.com/mirrorx/tokenradar/internal/gates"
	"github.com/mirrorx/tokenradar/internal/infrastructure/httpclient"
	opshttp "github.com/mirrorx/tokenradar/internal/interfaces/http"
	"github.com/mirrorx/tokenradar/internal/net/ratelimit"
	"github.com/mirrorx/tokenradar/internal/persistence"
	"github.com/mirrorx/tokenradar/internal/providers"
	"github.com/mirrorx/tokenradar/internal/scan"
	"github.com/mirrorx/tokenradar/internal/scheduler"
	"github.com/mirrorx/tokenradar/internal/scoring"
	"github.com/mirrorx/tokenradar/internal/snapshot"
	"github.com/mirrorx/tokenradar/internal/telemetry/metrics"
)

const (
	appName = "tokenradar"
	version = "v1.2.0"

	// resurfaced 24h gainers below this move are not worth another look
	gainerMinPct = 20.0
)

var (
	configPath string
	gatesPath  string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Signal detection and alerting for on-chain token markets",
		Version: version,
		Long: `tokenradar continuously discovers candidate tokens from public feeds,
enriches them with market metrics, gates out noise, scores the survivors
and dispatches tiered alerts.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogging()
		},
	}

	// accept underscore spellings of flag names
	rootCmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Main configuration file")
	rootCmd.PersistentFlags().StringVar(&gatesPath, "gates", "gates.yaml", "Gate profile configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one detection cycle and exit",
		RunE:  runScan,
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Run detection cycles continuously",
		Long:  "Runs the full pipeline on the configured cadence until interrupted, serving /health and /metrics when the ops listener is enabled.",
		RunE:  runWatch,
	}

	gatesCmd := &cobra.Command{
		Use:   "gates",
		Short: "Gate profile management",
	}
	gatesInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default gate profiles to the gates file",
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := os.Stat(gatesPath); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", gatesPath)
			}
			if err := config.SaveGatesConfig(config.DefaultGatesConfig(), gatesPath); err != nil {
				return err
			}
			log.Info().Str("path", gatesPath).Msg("Default gate profiles written")
			return nil
		},
	}
	gatesCmd.AddCommand(gatesInitCmd)

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Query a running instance's health endpoint",
		RunE:  runHealth,
	}

	rootCmd.AddCommand(scanCmd, watchCmd, gatesCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	if level, err := zerolog.ParseLevel(logLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// app is the fully wired pipeline plus the optional background pieces the
// watch command owns.
type app struct {
	cfg     config.Config
	profile config.GateProfile
	orch    *scan.Orchestrator
	store   trackedStore
	ws      *discovery.WebsocketMoverFeed
	history *persistence.History
	metrics *metrics.Registry
}

// trackedStore is a snapshot store that can enumerate its retained ids, which
// the gainer feed needs.
type trackedStore interface {
	snapshot.Store
	TrackedIDs() []string
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	gatesCfg, err := config.LoadGatesConfig(gatesPath)
	if err != nil {
		return nil, fmt.Errorf("load gates config: %w", err)
	}
	profile, err := gatesCfg.ActiveProfile()
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewLimiter(cfg.Provider.RPS, cfg.Provider.Burst)
	pool := httpclient.NewClientPool(httpclient.ClientConfig{
		MaxConcurrency: cfg.Provider.MaxConcurrency,
		RequestTimeout: cfg.Provider.RequestTimeout,
		JitterRange:    [2]int{cfg.Provider.JitterMinMs, cfg.Provider.JitterMaxMs},
		MaxRetries:     cfg.Provider.MaxRetries,
		BackoffBase:    cfg.Provider.BackoffBase,
		BackoffMax:     cfg.Provider.BackoffMax,
		UserAgent:      "TokenRadar/1.0",
	})
	market := providers.NewDexScreener(cfg.Provider, cfg.Discovery.ChainID, pool, limiter)

	var store trackedStore
	if cfg.Redis.Addr != "" {
		client := redisv9.NewClient(&redisv9.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = snapshot.NewRedisStore(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis snapshot store")
	} else {
		store = snapshot.NewMemoryStore(cfg.Snapshots.MaxRecords)
	}

	var cool cooldown.Controller
	if cfg.Redis.Addr != "" {
		client := redisv8.NewClient(&redisv8.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cool = cooldown.NewRedisController(client, cfg.Cooldown.Window)
	} else {
		cool = cooldown.NewMemoryController(cfg.Cooldown.Window)
	}

	dex := discovery.NewDexClient(cfg.Provider.BaseURL, cfg.Discovery.ChainID, pool, limiter)

	feeds := []discovery.Feed{
		dex.Boosts(),
		dex.Profiles(),
		dex.Takeovers(),
		discovery.NewGainerFeed(store, store.TrackedIDs, gainerMinPct),
	}
	var ws *discovery.WebsocketMoverFeed
	if cfg.Discovery.WebsocketURL != "" {
		ws = discovery.NewWebsocketMoverFeed(cfg.Discovery.WebsocketURL)
		feeds = append(feeds, ws)
	}

	destinations, err := buildDestinations(cfg.Alerts)
	if err != nil {
		return nil, err
	}
	if len(destinations) == 0 {
		log.Warn().Msg("No alert destinations configured, signals will only be logged")
	}

	var history *persistence.History
	if cfg.Postgres.DSN != "" {
		history, err = persistence.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open alert history: %w", err)
		}
	}

	reg := metrics.NewRegistry()
	orch := scan.NewOrchestrator(cfg.Scan, cfg.Discovery, scan.Deps{
		Discovery:    discovery.NewEngine(cfg.Discovery.FeedTimeout, feeds...),
		Market:       market,
		Store:        store,
		Gates:        gates.NewEngine(profile),
		Scorer:       scoring.NewScorer(cfg.Scoring, profile.ExceptionNames()),
		Decay:        scoring.NewDecay(cfg.Scoring.DecayHalfLife),
		Cooldown:     cool,
		Dispatcher:   alerts.NewDispatcher(alerts.NewFormatter(cfg.Alerts.PaperTradingEnable)),
		Destinations: destinations,
		Metrics:      reg,
		History:      history,
	})

	return &app{
		cfg:     cfg,
		profile: profile,
		orch:    orch,
		store:   store,
		ws:      ws,
		history: history,
		metrics: reg,
	}, nil
}

func buildDestinations(cfg config.AlertsConfig) ([]alerts.Destination, error) {
	var out []alerts.Destination

	if cfg.TelegramToken != "" {
		if cfg.TelegramChatFree != "" {
			dest, err := alerts.NewTelegramDestination(cfg.TelegramToken, cfg.TelegramChatFree, alerts.TierFree)
			if err != nil {
				return nil, err
			}
			out = append(out, dest)
		}
		if cfg.TelegramChatElite != "" {
			dest, err := alerts.NewTelegramDestination(cfg.TelegramToken, cfg.TelegramChatElite, alerts.TierElite)
			if err != nil {
				return nil, err
			}
			out = append(out, dest)
		}
	}
	if cfg.DiscordWebhookURL != "" {
		out = append(out, alerts.NewDiscordDestination(cfg.DiscordWebhookURL))
	}
	return out, nil
}

func runScan(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.history.Close()

	report, err := a.orch.RunCycle(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("alerted", report.Alerted).
		Str("regime", string(report.Regime)).
		Msg("Scan finished")
	return nil
}

func runWatch(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.history.Close()

	if a.ws != nil {
		go a.ws.Run(ctx)
	}
	if a.cfg.Ops.ListenAddr != "" {
		opshttp.NewServer(a.cfg.Ops.ListenAddr, a.metrics, a.healthStatus).Start(ctx)
	}

	log.Info().
		Str("version", version).
		Str("profile", a.profile.Name).
		Dur("interval", a.cfg.Scan.Interval).
		Msg("Watch loop starting")

	err = scheduler.New(a.orch, a.cfg.Scan.Interval, a.cfg.Scan.IntervalJitter).Run(ctx)
	if err == context.Canceled {
		log.Info().Msg("Shutting down")
		return nil
	}
	return err
}

func (a *app) healthStatus() opshttp.HealthStatus {
	last, ok := a.orch.LastCycle()
	status := "ok"
	if !last.StartedAt.IsZero() && !ok {
		status = "degraded"
	}
	return opshttp.HealthStatus{
		Status:        status,
		LastCycleAt:   last.StartedAt,
		LastCycleOK:   ok,
		TrackedIDs:    len(a.store.TrackedIDs()),
		ActiveProfile: a.profile.Name,
	}
}

func runHealth(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Ops.ListenAddr == "" {
		return fmt.Errorf("ops listener disabled in config")
	}

	addr := cfg.Ops.ListenAddr
	if addr[0] == ':' {
		addr = "127.0.0.1" + addr
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/health")
	if err != nil {
		return fmt.Errorf("health endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	var status opshttp.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}

	out, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(out))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("instance reports %s", status.Status)
	}
	return nil
}
