package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// GatesConfig represents the gate threshold configuration structure. Profiles
// let operators keep a strict and a loose tuning side by side and flip
// between them without redeploying.
type GatesConfig struct {
	Profiles map[string]GateProfile `yaml:"profiles"`
	Active   string                 `yaml:"active_profile"`
}

// GateProfile is one complete set of gate thresholds.
type GateProfile struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Normal      NormalGate      `yaml:"normal"`
	Exceptions  []ExceptionGate `yaml:"exceptions"`
}

// ExceptionNames lists the profile's exception gate names in priority order.
func (p GateProfile) ExceptionNames() []string {
	names := make([]string, 0, len(p.Exceptions))
	for _, g := range p.Exceptions {
		names = append(names, g.Name)
	}
	return names
}

// NormalGate holds the standard liquidity/volume/movement thresholds.
type NormalGate struct {
	MinLiquidityUSD float64 `yaml:"min_liquidity_usd"`
	MinVol1hUSD     float64 `yaml:"min_vol_1h_usd"`  // OR'd with 24h volume
	MinVol24hUSD    float64 `yaml:"min_vol_24h_usd"` //
	MinMovePct      float64 `yaml:"min_move_pct"`    // required on at least one window
}

// ExceptionGate trades a lower liquidity floor for much higher movement and
// volume floors. Gates are tried in slice order after the normal gate fails.
type ExceptionGate struct {
	Name            string  `yaml:"name"`
	MinLiquidityUSD float64 `yaml:"min_liquidity_usd"`
	MinVol1hUSD     float64 `yaml:"min_vol_1h_usd"`
	MinVol24hUSD    float64 `yaml:"min_vol_24h_usd"`
	MinChange5mPct  float64 `yaml:"min_change_5m_pct"`  // OR'd with the 1h floor
	MinChange1hPct  float64 `yaml:"min_change_1h_pct"`  //
	MinChange24hPct float64 `yaml:"min_change_24h_pct"` // 0 disables
}

// DefaultGatesConfig returns the tuned gate profile used by the reference
// deployment plus a stricter variant.
func DefaultGatesConfig() *GatesConfig {
	return &GatesConfig{
		Active: "standard",
		Profiles: map[string]GateProfile{
			"standard": {
				Name:        "standard",
				Description: "Default radar tuning for small-cap movers",
				Normal: NormalGate{
					MinLiquidityUSD: 20_000,
					MinVol1hUSD:     150_000,
					MinVol24hUSD:    750_000,
					MinMovePct:      5.0,
				},
				Exceptions: []ExceptionGate{
					{
						Name:            "ignition",
						MinLiquidityUSD: 8_000,
						MinVol1hUSD:     25_000,
						MinChange5mPct:  80.0,
						MinChange1hPct:  150.0,
					},
					{
						Name:            "moonshot",
						MinLiquidityUSD: 10_000,
						MinVol24hUSD:    500_000,
						MinChange24hPct: 80.0,
					},
				},
			},
			"conservative": {
				Name:        "conservative",
				Description: "Higher floors for quieter channels",
				Normal: NormalGate{
					MinLiquidityUSD: 50_000,
					MinVol1hUSD:     400_000,
					MinVol24hUSD:    2_000_000,
					MinMovePct:      10.0,
				},
				Exceptions: []ExceptionGate{
					{
						Name:            "moonshot",
						MinLiquidityUSD: 25_000,
						MinVol24hUSD:    1_000_000,
						MinChange24hPct: 120.0,
					},
				},
			},
		},
	}
}

// LoadGatesConfig loads gate thresholds from file. A missing path returns the
// defaults.
func LoadGatesConfig(configPath string) (*GatesConfig, error) {
	if configPath == "" {
		return DefaultGatesConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultGatesConfig(), nil
		}
		return nil, fmt.Errorf("failed to read gates config: %w", err)
	}

	var config GatesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse gates YAML: %w", err)
	}

	return &config, nil
}

// SaveGatesConfig saves gate thresholds to file.
func SaveGatesConfig(config *GatesConfig, configPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal gates config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write gates config: %w", err)
	}

	return nil
}

// ActiveProfile returns the currently selected gate profile.
func (c *GatesConfig) ActiveProfile() (GateProfile, error) {
	profile, ok := c.Profiles[c.Active]
	if !ok {
		return GateProfile{}, fmt.Errorf("active gate profile %q not found", c.Active)
	}
	return profile, nil
}
