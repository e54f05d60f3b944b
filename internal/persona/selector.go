// Package persona selects charging stations according to persona-specific
// objectives. Each policy is a pure function of the request and the shared
// indexes; dispatch is a closed switch over the persona tag.
package persona

import (
	"errors"
	"math"

	"evadvisor/internal/config"
	"evadvisor/internal/energy"
	"evadvisor/internal/graph"
	"evadvisor/internal/model"
	"evadvisor/internal/station"
)

var (
	// ErrNoOperationalStations means the whole map has no usable station.
	ErrNoOperationalStations = errors.New("no operational charging stations")
	// ErrNoReachableStation means no station passed the reachability margin.
	ErrNoReachableStation = errors.New("no reachable charging station")
	// ErrNoCandidate means reachable stations exist but none lies on the
	// forward path or within the detour tolerance.
	ErrNoCandidate = errors.New("no station within detour tolerance")
)

// defaultBasePrice is assumed for stations in zones missing price data.
const defaultBasePrice = 100

// Request describes one station selection.
type Request struct {
	Persona model.Persona
	// Origin is the node the customer selects from.
	Origin string
	// ForwardPath is the remaining route ahead of Origin; its last node is
	// the destination. Nodes already passed must not appear. Empty means
	// "no route context", selection is then purely by objective.
	ForwardPath []string
	// Tick at which the customer is expected to charge; EcoConscious scoring
	// reads the zone energy log at this tick.
	Tick             int
	ChargeKwh        float64
	ConsumptionPerKm float64
}

// Selector resolves requests against the map indexes and strategy config.
type Selector struct {
	Router  *graph.Router
	Catalog *station.Catalog
	History *energy.History
	Cfg     config.Config
}

// Select returns the persona's preferred station, or one of the sentinel
// errors above. All errors are recoverable per customer.
func (s *Selector) Select(req Request) (model.ChargingStation, error) {
	ops := s.Catalog.Operational()
	if len(ops) == 0 {
		return model.ChargingStation{}, ErrNoOperationalStations
	}
	reachable := station.Reachable(s.Router, req.Origin, ops,
		req.ChargeKwh, req.ConsumptionPerKm, s.Cfg.Thresholds.ReachabilityMargin)
	if len(reachable) == 0 {
		return model.ChargingStation{}, ErrNoReachableStation
	}

	switch req.Persona {
	case model.PersonaEcoConscious:
		return s.pickScored(req, reachable, s.greenScore)
	case model.PersonaCostSensitive:
		return s.pickScored(req, reachable, s.priceScore)
	default:
		// Stressed, DislikesDriving, Neutral, and unknown tags: closest
		// operational station.
		return s.pickNearest(req, reachable)
	}
}

// narrowToPath keeps candidates on the forward path when any exist, otherwise
// candidates within detourFactor of the direct distance to the destination.
func (s *Selector) narrowToPath(req Request, candidates []model.ChargingStation, detourFactor float64) ([]model.ChargingStation, error) {
	if len(req.ForwardPath) == 0 {
		return candidates, nil
	}
	onPath := map[string]bool{}
	for _, n := range req.ForwardPath {
		onPath[n] = true
	}
	var kept []model.ChargingStation
	for _, c := range candidates {
		if onPath[c.NodeID] {
			kept = append(kept, c)
		}
	}
	if len(kept) > 0 {
		return kept, nil
	}

	dest := req.ForwardPath[len(req.ForwardPath)-1]
	direct := s.Router.ShortestPath(req.Origin, dest).Distance
	for _, c := range candidates {
		toStation := s.Router.ShortestPath(req.Origin, c.NodeID)
		onward := s.Router.ShortestPath(c.NodeID, dest)
		if !toStation.Reachable() || !onward.Reachable() {
			continue
		}
		if toStation.Distance+onward.Distance <= direct*detourFactor {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoCandidate
	}
	return kept, nil
}

type scoreFn func(st model.ChargingStation, distance float64, tick int) float64

// pickScored applies the 1.5x detour tolerance and takes the best-scoring
// candidate. Ties keep the earliest candidate so results are deterministic.
func (s *Selector) pickScored(req Request, candidates []model.ChargingStation, score scoreFn) (model.ChargingStation, error) {
	pool, err := s.narrowToPath(req, candidates, s.Cfg.Selection.DetourFactorScored)
	if err != nil {
		return model.ChargingStation{}, err
	}
	best := model.ChargingStation{}
	bestScore := math.Inf(-1)
	found := false
	for _, c := range pool {
		res := s.Router.ShortestPath(req.Origin, c.NodeID)
		if !res.Reachable() {
			continue
		}
		if sc := score(c, res.Distance, req.Tick); sc > bestScore {
			best, bestScore, found = c, sc, true
		}
	}
	if !found {
		return model.ChargingStation{}, ErrNoCandidate
	}
	return best, nil
}

// pickNearest applies the 1.9x detour tolerance and takes the closest
// candidate.
func (s *Selector) pickNearest(req Request, candidates []model.ChargingStation) (model.ChargingStation, error) {
	pool, err := s.narrowToPath(req, candidates, s.Cfg.Selection.DetourFactorNearest)
	if err != nil {
		return model.ChargingStation{}, err
	}
	best := model.ChargingStation{}
	bestDist := math.Inf(1)
	for _, c := range pool {
		res := s.Router.ShortestPath(req.Origin, c.NodeID)
		if res.Distance < bestDist {
			best, bestDist = c, res.Distance
		}
	}
	if math.IsInf(bestDist, 1) {
		return model.ChargingStation{}, ErrNoCandidate
	}
	return best, nil
}

// greenScore favors zones producing green energy at the charge tick. Once any
// zone logs have been collected a missing tick scores zero green; the
// station's static percentage is only trusted while the history is empty.
func (s *Selector) greenScore(st model.ChargingStation, distance float64, tick int) float64 {
	greenPct := 0.0
	if s.History != nil && s.History.Len() > 0 {
		greenPct, _ = s.History.GreenPercentage(st.ZoneID, tick)
	} else {
		greenPct = st.GreenEnergyPct
	}
	w := s.Cfg.Selection.EcoConscious
	return greenPct*w.GreenEnergyWeight - distance*w.DistancePenalty
}

// priceScore favors zones with low base price.
func (s *Selector) priceScore(st model.ChargingStation, distance float64, _ int) float64 {
	price := float64(defaultBasePrice)
	if z, ok := s.Catalog.Zone(st.ZoneID); ok {
		price = z.BasePrice
	}
	w := s.Cfg.Selection.CostSensitive
	return -(price * w.PriceWeight) - distance*w.DistancePenalty
}

// ChargeTarget returns the fraction of capacity a persona charges to.
// CostSensitive sizes the target from the journey's buffered energy need; the
// other personas use their configured targets directly.
func ChargeTarget(cfg config.Config, p model.Persona, routeDistanceKm, maxCharge, consumptionPerKm float64) float64 {
	target := cfg.ChargeTarget(p)
	if p != model.PersonaCostSensitive || maxCharge <= 0 {
		return target
	}
	required := routeDistanceKm * consumptionPerKm * cfg.Thresholds.EnergyBufferMultiplier / maxCharge
	frac := math.Min(1.0, required+0.1)
	return math.Max(target, frac)
}
