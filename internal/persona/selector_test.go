package persona

import (
	"errors"
	"testing"

	"evadvisor/internal/config"
	"evadvisor/internal/energy"
	"evadvisor/internal/graph"
	"evadvisor/internal/model"
	"evadvisor/internal/station"
)

// diamond builds O -> {A, B} -> D with a short branch through A (5+5) and a
// long branch through B (8+8). A sits in a cheap coal zone, B in an expensive
// wind zone.
func diamond(t *testing.T) (*graph.Router, *station.Catalog) {
	t.Helper()
	nodes := []model.Node{{ID: "O"}, {ID: "A"}, {ID: "B"}, {ID: "D"}}
	var edges []model.Edge
	link := func(u, v string, l float64) {
		edges = append(edges,
			model.Edge{FromNode: u, ToNode: v, Length: l},
			model.Edge{FromNode: v, ToNode: u, Length: l})
	}
	link("O", "A", 5)
	link("A", "D", 5)
	link("O", "B", 8)
	link("B", "D", 8)
	ix, err := graph.NewIndex(nodes, edges)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	cat := station.NewCatalog([]model.ChargingStation{
		{NodeID: "A", ZoneID: "coal", Operational: true, AvailableChargers: 1, GreenEnergyPct: 10},
		{NodeID: "B", ZoneID: "wind", Operational: true, AvailableChargers: 1, GreenEnergyPct: 90},
	}, []model.Zone{
		{ID: "coal", BasePrice: 30},
		{ID: "wind", BasePrice: 80},
	})
	return graph.NewRouter(ix), cat
}

func newSelector(t *testing.T) *Selector {
	t.Helper()
	r, cat := diamond(t)
	return &Selector{Router: r, Catalog: cat, History: energy.NewHistory(), Cfg: config.Default()}
}

func req(p model.Persona, charge float64) Request {
	return Request{Persona: p, Origin: "O", ChargeKwh: charge, ConsumptionPerKm: 1}
}

func TestEcoConsciousPrefersGreenBranch(t *testing.T) {
	s := newSelector(t)
	got, err := s.Select(req(model.PersonaEcoConscious, 50))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.NodeID != "B" {
		t.Fatalf("eco pick: got %s, want B", got.NodeID)
	}
}

func TestCostSensitivePrefersCheapBranch(t *testing.T) {
	s := newSelector(t)
	got, err := s.Select(req(model.PersonaCostSensitive, 50))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.NodeID != "A" {
		t.Fatalf("cost pick: got %s, want A", got.NodeID)
	}
}

func TestNearestPersonasPickClosest(t *testing.T) {
	s := newSelector(t)
	for _, p := range []model.Persona{model.PersonaStressed, model.PersonaDislikesDriving, model.PersonaNeutral} {
		got, err := s.Select(req(p, 50))
		if err != nil {
			t.Fatalf("%s select: %v", p, err)
		}
		if got.NodeID != "A" {
			t.Fatalf("%s pick: got %s, want A", p, got.NodeID)
		}
	}
}

// Insufficient charge returns no station even though the map has operational
// ones, whichever branch is closer.
func TestSelectInsufficientCharge(t *testing.T) {
	s := newSelector(t)
	for _, p := range []model.Persona{model.PersonaEcoConscious, model.PersonaCostSensitive, model.PersonaNeutral} {
		if _, err := s.Select(req(p, 1)); !errors.Is(err, ErrNoReachableStation) {
			t.Fatalf("%s: got %v, want ErrNoReachableStation", p, err)
		}
	}
}

func TestSelectNoOperationalStations(t *testing.T) {
	s := newSelector(t)
	s.Catalog = station.NewCatalog(nil, nil)
	if _, err := s.Select(req(model.PersonaNeutral, 50)); !errors.Is(err, ErrNoOperationalStations) {
		t.Fatalf("got %v, want ErrNoOperationalStations", err)
	}
}

// A station on the forward path wins over a better-scoring station off it.
func TestForwardPathOverridesScore(t *testing.T) {
	s := newSelector(t)
	r := req(model.PersonaEcoConscious, 50)
	r.ForwardPath = []string{"A", "D"}
	got, err := s.Select(r)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.NodeID != "A" {
		t.Fatalf("on-path pick: got %s, want A", got.NodeID)
	}
}

// With no station on the path, the detour tolerance admits only the short
// branch: direct O->D is 10, via A is 10, via B is 16 (> 10 * 1.5).
func TestDetourToleranceLimitsOffPathCandidates(t *testing.T) {
	s := newSelector(t)
	r := req(model.PersonaEcoConscious, 50)
	r.ForwardPath = []string{"D"}
	got, err := s.Select(r)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.NodeID != "A" {
		t.Fatalf("detour pick: got %s, want A", got.NodeID)
	}
}

func TestDetourToleranceCanRejectAll(t *testing.T) {
	s := newSelector(t)
	s.Cfg.Selection.DetourFactorScored = 0.9
	r := req(model.PersonaEcoConscious, 50)
	r.ForwardPath = []string{"D"}
	if _, err := s.Select(r); !errors.Is(err, ErrNoCandidate) {
		t.Fatalf("got %v, want ErrNoCandidate", err)
	}
}

// Once zone logs exist the measured mix at the charge tick replaces the
// station's static percentage.
func TestEcoConsciousUsesHistoryAtTick(t *testing.T) {
	s := newSelector(t)
	s.History.Merge([]model.TickZoneLog{{
		Tick: 3,
		Zones: []model.ZoneTickLog{
			{ZoneID: "coal", TotalProduction: 10, SourceInfo: map[string]model.SourceProduction{
				"Solar": {Production: 10, IsGreen: true},
			}},
			{ZoneID: "wind", TotalProduction: 10, SourceInfo: map[string]model.SourceProduction{
				"Gas": {Production: 10, IsGreen: false},
			}},
		},
	}})
	r := req(model.PersonaEcoConscious, 50)
	r.Tick = 3
	got, err := s.Select(r)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.NodeID != "A" {
		t.Fatalf("history pick: got %s, want A", got.NodeID)
	}
}

func TestChargeTarget(t *testing.T) {
	cfg := config.Default()
	if got := ChargeTarget(cfg, model.PersonaNeutral, 100, 100, 1); got != 0.90 {
		t.Fatalf("neutral: got %v, want 0.90", got)
	}
	if got := ChargeTarget(cfg, model.PersonaStressed, 100, 100, 1); got != 1.0 {
		t.Fatalf("stressed: got %v, want 1.0", got)
	}
	// 100 km * 0.5 kWh/km * 1.2 buffer / 100 kWh = 0.6, plus 0.1 headroom is
	// below the configured 0.80 floor.
	if got := ChargeTarget(cfg, model.PersonaCostSensitive, 100, 100, 0.5); got != 0.80 {
		t.Fatalf("cost floor: got %v, want 0.80", got)
	}
	// 200 km * 1.0 * 1.2 / 200 = 1.2, capped at 1.0.
	if got := ChargeTarget(cfg, model.PersonaCostSensitive, 200, 200, 1); got != 1.0 {
		t.Fatalf("cost cap: got %v, want 1.0", got)
	}
	if got := ChargeTarget(cfg, model.PersonaCostSensitive, 100, 0, 1); got != 0.80 {
		t.Fatalf("cost zero capacity: got %v, want 0.80", got)
	}
}
