package config

import (
	"os"
	"path/filepath"
	"testing"

	"evadvisor/internal/model"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.yaml")
	body := []byte("name: conservative\ncharging_thresholds:\n  safety_margin: 1.3\n  proactive_threshold: 0.6\n  emergency_threshold: 0.35\n  energy_buffer_multiplier: 1.2\n  reachability_margin: 1.1\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "conservative" {
		t.Fatalf("name: got %q", cfg.Name)
	}
	if cfg.Thresholds.SafetyMargin != 1.3 {
		t.Fatalf("safety margin not overridden: %v", cfg.Thresholds.SafetyMargin)
	}
	// Untouched sections keep their defaults.
	if cfg.LoopDetection.TwoNodeMinVisits != 6 {
		t.Fatalf("loop defaults lost: %+v", cfg.LoopDetection)
	}
	if cfg.ChargeTarget(model.PersonaStressed) != 1.0 {
		t.Fatalf("charge target defaults lost")
	}
}

func TestChargeTargetFallsBackToNeutral(t *testing.T) {
	cfg := Default()
	if got := cfg.ChargeTarget(model.Persona("Adventurous")); got != 0.90 {
		t.Fatalf("unknown persona: got %v, want 0.90", got)
	}
}

func TestSpeedFor(t *testing.T) {
	cfg := Default()
	cfg.VehicleSpeeds = map[string]float64{"Truck": 0.6}
	if got := cfg.SpeedFor("Truck"); got != 0.6 {
		t.Fatalf("truck speed: got %v", got)
	}
	if got := cfg.SpeedFor("Car"); got != cfg.AvgSpeedKmPerTick {
		t.Fatalf("fallback speed: got %v", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Thresholds.SafetyMargin = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero safety margin")
	}
	cfg = Default()
	cfg.LoopDetection.ThreeNodeMinVisits = 8
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-multiple-of-3 minimum")
	}
}
