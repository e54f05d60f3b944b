package schedule

import (
	"errors"
	"log"
	"math"

	"evadvisor/internal/config"
	"evadvisor/internal/energy"
	"evadvisor/internal/graph"
	"evadvisor/internal/model"
	"evadvisor/internal/persona"
)

// Planner builds the pre-run schedule: one recommendation slot per customer
// at its departure tick, filled when the journey needs a charge.
type Planner struct {
	Selector *persona.Selector
	Cfg      config.Config
}

// GenerateInitialSchedule plans every customer's departure before the first
// simulator call. Customers whose destination is unreachable are skipped and
// left to mid-run intervention; customers that can finish on their current
// charge get an empty slot so the simulator still sees them dispatched.
func (p *Planner) GenerateInitialSchedule(customers []model.Customer) *Schedule {
	s := New()
	for _, c := range customers {
		rec := model.Recommendation{CustomerID: c.CustomerID}
		route := p.Selector.Router.ShortestPath(c.FromNode, c.ToNode)
		if !route.Reachable() {
			log.Printf("planner: customer %s has no route %s -> %s, skipping initial plan",
				c.CustomerID, c.FromNode, c.ToNode)
			continue
		}
		if advice, ok := p.planCharge(c, route); ok {
			rec.ChargingRecommendations = []model.ChargingAdvice{advice}
		}
		s.Add(c.DepartureTick, rec)
	}
	return s
}

// planCharge decides whether the customer should stop to charge and where.
// Station choice is made twice: once at the departure tick to fix the stop,
// then again at the estimated arrival tick so tick-dependent scoring (zone
// energy mix) evaluates the conditions the vehicle will actually find.
func (p *Planner) planCharge(c model.Customer, route graph.Result) (model.ChargingAdvice, bool) {
	needs := p.Cfg.AlwaysCharge ||
		energy.NeedsCharging(route.Distance, c.ChargeKwh(), c.ConsumptionPerKm, p.Cfg.Thresholds.SafetyMargin)
	if !needs {
		return model.ChargingAdvice{}, false
	}

	req := persona.Request{
		Persona:          c.Persona,
		Origin:           c.FromNode,
		ForwardPath:      route.Path,
		Tick:             c.DepartureTick,
		ChargeKwh:        c.ChargeKwh(),
		ConsumptionPerKm: c.ConsumptionPerKm,
	}
	st, err := p.Selector.Select(req)
	if err != nil {
		logSelectFailure(c.CustomerID, err)
		return model.ChargingAdvice{}, false
	}

	arrival := p.ArrivalTick(c, st.NodeID)
	if arrival != c.DepartureTick {
		req.Tick = arrival
		if st2, err := p.Selector.Select(req); err == nil {
			st = st2
		}
	}

	target := persona.ChargeTarget(p.Cfg, c.Persona, route.Distance, c.MaxCharge, c.ConsumptionPerKm)
	return model.ChargingAdvice{NodeID: st.NodeID, ChargeTo: target}, true
}

// ArrivalTick estimates when the customer reaches a node: departure plus
// travel ticks at the vehicle's speed, rounded down, plus one tick for the
// charger handshake.
func (p *Planner) ArrivalTick(c model.Customer, nodeID string) int {
	res := p.Selector.Router.ShortestPath(c.FromNode, nodeID)
	if !res.Reachable() {
		return c.DepartureTick
	}
	speed := p.Cfg.SpeedFor(c.VehicleType)
	if speed <= 0 {
		return c.DepartureTick
	}
	return c.DepartureTick + int(math.Floor(res.Distance/speed)) + 1
}

func logSelectFailure(customerID string, err error) {
	switch {
	case errors.Is(err, persona.ErrNoOperationalStations):
		log.Printf("planner: customer %s: no operational stations", customerID)
	case errors.Is(err, persona.ErrNoReachableStation):
		log.Printf("planner: customer %s: no station reachable on current charge", customerID)
	default:
		log.Printf("planner: customer %s: station selection failed: %v", customerID, err)
	}
}
