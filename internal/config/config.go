// Package config holds the named strategy configuration: every threshold,
// weight, and policy flag the advisor consults. Nothing in the decision path
// reads a hardcoded constant.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"evadvisor/internal/model"
)

// Thresholds are the charge-decision cutoffs and multipliers.
type Thresholds struct {
	// SafetyMargin multiplies required journey energy in NeedsCharging.
	SafetyMargin float64 `yaml:"safety_margin"`
	// ProactiveThreshold is the charge fraction below which an en-route
	// customer gets a recommendation even without an emergency.
	ProactiveThreshold float64 `yaml:"proactive_threshold"`
	// EmergencyThreshold is the charge fraction treated as critical.
	EmergencyThreshold float64 `yaml:"emergency_threshold"`
	// EnergyBufferMultiplier pads journey energy when sizing charge targets.
	EnergyBufferMultiplier float64 `yaml:"energy_buffer_multiplier"`
	// ReachabilityMargin multiplies energy-to-station before a candidate
	// station is accepted as reachable.
	ReachabilityMargin float64 `yaml:"reachability_margin"`
}

// LoopDetection configures the stuck-customer detector.
type LoopDetection struct {
	Enabled            bool `yaml:"enabled"`
	LookbackTicks      int  `yaml:"lookback_ticks"`
	TwoNodeMinVisits   int  `yaml:"two_node_loop_min_visits"`
	ThreeNodeMinVisits int  `yaml:"three_node_loop_min_visits"`
}

// ScoreWeights parameterize one persona's station scoring.
type ScoreWeights struct {
	GreenEnergyWeight float64 `yaml:"green_energy_weight,omitempty"`
	PriceWeight       float64 `yaml:"price_weight,omitempty"`
	DistancePenalty   float64 `yaml:"distance_penalty"`
}

// StationSelection groups scoring weights and detour tolerances.
//
// The two detour factors are deliberately distinct: the scored policies
// (Eco/Cost) accept detours up to 1.5x the direct distance, the distance-only
// policies up to 1.9x.
type StationSelection struct {
	EcoConscious        ScoreWeights `yaml:"eco_conscious"`
	CostSensitive       ScoreWeights `yaml:"cost_sensitive"`
	DetourFactorScored  float64      `yaml:"detour_factor_scored"`
	DetourFactorNearest float64      `yaml:"detour_factor_nearest"`
}

// Config is a named strategy configuration.
type Config struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Thresholds    Thresholds                `yaml:"charging_thresholds"`
	ChargeTargets map[model.Persona]float64 `yaml:"persona_charge_targets"`
	LoopDetection LoopDetection             `yaml:"loop_detection"`
	Selection     StationSelection          `yaml:"station_selection"`

	// AlwaysCharge schedules one charge per customer even when the route
	// fits the current charge (charging earns score).
	AlwaysCharge bool `yaml:"always_charge"`
	// DynamicIntervention enables mid-run recommendations from telemetry.
	DynamicIntervention bool `yaml:"dynamic_intervention"`

	// AvgSpeedKmPerTick estimates arrival ticks when no per-type speed is
	// known. VehicleSpeeds overrides it per vehicle type.
	AvgSpeedKmPerTick float64            `yaml:"avg_speed_km_per_tick"`
	VehicleSpeeds     map[string]float64 `yaml:"vehicle_speeds,omitempty"`

	// MaxTicks is the run horizon T; the driver iterates t = 0..T.
	MaxTicks int `yaml:"max_ticks"`
}

// Default returns the built-in strategy, used when no file is given.
func Default() Config {
	return Config{
		Name:        "default",
		Description: "Built-in default strategy",
		Thresholds: Thresholds{
			SafetyMargin:           1.1,
			ProactiveThreshold:     0.50,
			EmergencyThreshold:     0.30,
			EnergyBufferMultiplier: 1.2,
			ReachabilityMargin:     1.05,
		},
		ChargeTargets: map[model.Persona]float64{
			model.PersonaStressed:        1.0,
			model.PersonaCostSensitive:   0.80,
			model.PersonaDislikesDriving: 1.0,
			model.PersonaEcoConscious:    1.0,
			model.PersonaNeutral:         0.90,
		},
		LoopDetection: LoopDetection{
			Enabled:            true,
			LookbackTicks:      20,
			TwoNodeMinVisits:   6,
			ThreeNodeMinVisits: 9,
		},
		Selection: StationSelection{
			EcoConscious:        ScoreWeights{GreenEnergyWeight: 1000, DistancePenalty: 1.0},
			CostSensitive:       ScoreWeights{PriceWeight: 1.0, DistancePenalty: 0.1},
			DetourFactorScored:  1.5,
			DetourFactorNearest: 1.9,
		},
		AlwaysCharge:        true,
		DynamicIntervention: true,
		AvgSpeedKmPerTick:   1.0,
		MaxTicks:            288,
	}
}

// Load reads a strategy file and overlays it on the defaults, so partial
// files only override what they name.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading strategy config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing strategy config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("strategy config %s: %w", path, err)
	}
	return cfg, nil
}

// ChargeTarget returns the configured charge fraction for a persona,
// defaulting to the Neutral target for unknown tags.
func (c Config) ChargeTarget(p model.Persona) float64 {
	if t, ok := c.ChargeTargets[p]; ok {
		return t
	}
	if t, ok := c.ChargeTargets[model.PersonaNeutral]; ok {
		return t
	}
	return 0.90
}

// SpeedFor returns the km/tick travel speed for a vehicle type.
func (c Config) SpeedFor(vehicleType string) float64 {
	if s, ok := c.VehicleSpeeds[vehicleType]; ok && s > 0 {
		return s
	}
	return c.AvgSpeedKmPerTick
}

// Validate rejects configurations the decision logic cannot run with.
func (c Config) Validate() error {
	if c.Thresholds.SafetyMargin <= 0 {
		return fmt.Errorf("safety_margin must be > 0, got %v", c.Thresholds.SafetyMargin)
	}
	if c.Thresholds.ReachabilityMargin <= 0 {
		return fmt.Errorf("reachability_margin must be > 0, got %v", c.Thresholds.ReachabilityMargin)
	}
	if c.Selection.DetourFactorScored < 1 || c.Selection.DetourFactorNearest < 1 {
		return fmt.Errorf("detour factors must be >= 1, got %v and %v",
			c.Selection.DetourFactorScored, c.Selection.DetourFactorNearest)
	}
	if c.LoopDetection.Enabled {
		if c.LoopDetection.LookbackTicks < c.LoopDetection.TwoNodeMinVisits {
			return fmt.Errorf("lookback_ticks %d shorter than two_node_loop_min_visits %d",
				c.LoopDetection.LookbackTicks, c.LoopDetection.TwoNodeMinVisits)
		}
		if c.LoopDetection.ThreeNodeMinVisits%3 != 0 {
			return fmt.Errorf("three_node_loop_min_visits must be a multiple of 3, got %d",
				c.LoopDetection.ThreeNodeMinVisits)
		}
	}
	if c.MaxTicks < 0 {
		return fmt.Errorf("max_ticks must be >= 0, got %d", c.MaxTicks)
	}
	return nil
}
