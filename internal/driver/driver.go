// Package driver runs the iterative tick loop against the simulation engine:
// submit the cumulative schedule, read the snapshot, and intervene for
// customers that are low, looping, or short on energy for the rest of their
// route.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"evadvisor/internal/config"
	"evadvisor/internal/energy"
	"evadvisor/internal/events"
	"evadvisor/internal/graph"
	"evadvisor/internal/loopdetect"
	"evadvisor/internal/metrics"
	"evadvisor/internal/model"
	"evadvisor/internal/persona"
	"evadvisor/internal/schedule"
	"evadvisor/internal/sim"
	"evadvisor/internal/station"
	"evadvisor/internal/store"
)

// Driver owns one run. It is single-threaded: every decision happens between
// two simulator calls, so no state here needs locking.
type Driver struct {
	Sim     sim.Simulator
	Router  *graph.Router
	Catalog *station.Catalog
	History *energy.History
	Loops   *loopdetect.Detector
	Cfg     config.Config

	MapName   string
	Customers []model.Customer

	// Store and Broker are optional; nil disables persistence / streaming.
	Store  store.Store
	Broker events.Broker

	sched   *schedule.Schedule
	pending schedule.PendingSet
	// first engine-reported path per customer, the authoritative full route
	paths map[string][]string
}

// Result is what a run produced, also on early halt.
type Result struct {
	RunID       string
	Final       model.Snapshot
	TicksPlayed int
	Analyses    []model.TickAnalysis
	// FinalInput is the cumulative schedule of the last successful
	// submission, replayable as-is.
	FinalInput model.GameInput
}

// Run executes the tick loop t = 0..MaxTicks. A simulator failure halts the
// run and returns the results gathered so far together with the error.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	d.pending = schedule.NewPendingSet()
	d.paths = map[string][]string{}

	planner := &schedule.Planner{
		Selector: d.selector(),
		Cfg:      d.Cfg,
	}
	d.sched = planner.GenerateInitialSchedule(d.Customers)

	res := Result{}
	if d.Store != nil {
		run, err := d.Store.CreateRun(ctx, d.MapName, d.Cfg.Name)
		if err != nil {
			return res, fmt.Errorf("creating run record: %w", err)
		}
		res.RunID = run.ID
	}

	log.Printf("driver: starting run %s on %s, ticks 0..%d", res.RunID, d.MapName, d.Cfg.MaxTicks)

	for t := 0; t <= d.Cfg.MaxTicks; t++ {
		d.Router.ResetMemo()

		in := model.GameInput{MapName: d.MapName, PlayToTick: t, Ticks: d.sched.InputThrough(t)}
		started := time.Now()
		snap, err := d.Sim.Play(ctx, in)
		simDur := time.Since(started)
		metrics.SimDuration.Observe(simDur.Seconds())
		if err != nil {
			metrics.SimCalls.WithLabelValues("error").Inc()
			log.Printf("driver: halting at tick %d: %v", t, err)
			d.finish(ctx, &res, model.RunFailed)
			return res, fmt.Errorf("simulator at tick %d: %w", t, err)
		}
		metrics.SimCalls.WithLabelValues("ok").Inc()

		res.Final = snap
		res.TicksPlayed = t
		res.FinalInput = in

		d.savePaths(snap.CustomerLogs)
		newLogs := d.History.Merge(snap.ZoneLogs)
		completed := completedCustomers(snap.Map)
		for id := range completed {
			d.pending.Clear(id)
			d.Loops.Reset(id)
		}

		ta := d.evaluate(t, snap, completed)
		ta.Score = snap.Score
		ta.KwhRevenue = snap.KwhRevenue
		ta.CompletionScore = snap.CustomerCompletionScore
		ta.NewZoneLogs = newLogs
		ta.SimDurationMs = simDur.Milliseconds()
		ta.CustomersDone = len(completed)
		ta.States = stateHistogram(snap.Map)
		res.Analyses = append(res.Analyses, ta)

		if d.Store != nil && res.RunID != "" {
			if err := d.Store.SaveTickAnalysis(ctx, res.RunID, ta); err != nil {
				log.Printf("driver: saving tick %d analysis: %v", t, err)
			}
		}
		if d.Broker != nil {
			d.Broker.Publish(res.RunID, events.Event{Type: "tick", Data: map[string]any{
				"tick":            t,
				"score":           snap.Score,
				"recommendations": ta.Recommendations,
				"customersDone":   ta.CustomersDone,
			}})
		}
	}

	metrics.RunScore.Set(res.Final.Score)
	d.finish(ctx, &res, model.RunFinished)
	log.Printf("driver: run %s finished, score %.2f over %d ticks", res.RunID, res.Final.Score, res.TicksPlayed)
	return res, nil
}

// RunSingle plays the initial schedule in one submission, with no mid-run
// intervention. Useful for scoring a strategy quickly.
func (d *Driver) RunSingle(ctx context.Context) (Result, error) {
	d.pending = schedule.NewPendingSet()
	d.paths = map[string][]string{}

	planner := &schedule.Planner{Selector: d.selector(), Cfg: d.Cfg}
	d.sched = planner.GenerateInitialSchedule(d.Customers)

	res := Result{}
	if d.Store != nil {
		run, err := d.Store.CreateRun(ctx, d.MapName, d.Cfg.Name)
		if err != nil {
			return res, fmt.Errorf("creating run record: %w", err)
		}
		res.RunID = run.ID
	}

	in := model.GameInput{MapName: d.MapName, PlayToTick: d.Cfg.MaxTicks, Ticks: d.sched.InputThrough(d.Cfg.MaxTicks)}
	started := time.Now()
	snap, err := d.Sim.Play(ctx, in)
	metrics.SimDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.SimCalls.WithLabelValues("error").Inc()
		d.finish(ctx, &res, model.RunFailed)
		return res, fmt.Errorf("simulator: %w", err)
	}
	metrics.SimCalls.WithLabelValues("ok").Inc()

	res.Final = snap
	res.TicksPlayed = d.Cfg.MaxTicks
	res.FinalInput = in
	d.History.Merge(snap.ZoneLogs)
	metrics.RunScore.Set(snap.Score)
	d.finish(ctx, &res, model.RunFinished)
	log.Printf("driver: single run %s scored %.2f", res.RunID, snap.Score)
	return res, nil
}

func (d *Driver) selector() *persona.Selector {
	return &persona.Selector{Router: d.Router, Catalog: d.Catalog, History: d.History, Cfg: d.Cfg}
}

func (d *Driver) finish(ctx context.Context, res *Result, status string) {
	if d.Broker != nil {
		d.Broker.Publish(res.RunID, events.Event{Type: status, Data: map[string]any{
			"score":       res.Final.Score,
			"ticksPlayed": res.TicksPlayed,
		}})
	}
	if d.Store == nil || res.RunID == "" {
		return
	}
	_, err := d.Store.FinishRun(ctx, res.RunID, model.Run{
		Status:          status,
		Score:           res.Final.Score,
		KwhRevenue:      res.Final.KwhRevenue,
		CompletionScore: res.Final.CustomerCompletionScore,
		TicksPlayed:     res.TicksPlayed,
		Schedule:        res.FinalInput.Ticks,
	})
	if err != nil {
		log.Printf("driver: finishing run record: %v", err)
	}
}

// savePaths records the first reported path of each customer. The engine
// nulls the path while a vehicle travels an edge, so only the first log entry
// carries the full route. Bonus customers appearing mid-game get theirs on
// arrival.
func (d *Driver) savePaths(logs []model.CustomerLog) {
	for _, cl := range logs {
		if _, seen := d.paths[cl.CustomerID]; seen {
			continue
		}
		if len(cl.Logs) == 0 {
			continue
		}
		first := cl.Logs[0]
		if len(first.Path) == 0 {
			continue
		}
		d.paths[cl.CustomerID] = first.Path
		if first.Tick > 0 {
			log.Printf("driver: bonus customer %s appeared at tick %d", cl.CustomerID, first.Tick)
		}
	}
}

// stateHistogram counts customers per state across the occupancy view; the
// logs never show terminal states, the map does.
func stateHistogram(m model.MapState) map[string]int {
	states := map[string]int{}
	for _, n := range m.Nodes {
		for _, c := range n.Customers {
			states[c.State]++
		}
	}
	for _, e := range m.Edges {
		for _, c := range e.Customers {
			states[c.State]++
		}
	}
	if len(states) == 0 {
		return nil
	}
	return states
}

// completedCustomers collects IDs in DestinationReached state from the map
// occupancy. Customer logs never show that state.
func completedCustomers(m model.MapState) map[string]bool {
	done := map[string]bool{}
	for _, n := range m.Nodes {
		for _, c := range n.Customers {
			if c.State == model.StateDestinationReached {
				done[c.ID] = true
			}
		}
	}
	return done
}

// vehicleParams finds a customer's battery capacity and consumption in the
// occupancy view. The customer roster lacks bonus customers, so the snapshot
// is the only reliable source.
func vehicleParams(m model.MapState, customerID string) (maxCharge, consumption float64) {
	for _, n := range m.Nodes {
		for _, c := range n.Customers {
			if c.ID == customerID && c.MaxCharge > 0 {
				return c.MaxCharge, c.EnergyConsumptionPerKm
			}
		}
	}
	for _, e := range m.Edges {
		for _, c := range e.Customers {
			if c.ID == customerID && c.MaxCharge > 0 {
				return c.MaxCharge, c.EnergyConsumptionPerKm
			}
		}
	}
	return 100, 1.0
}

// evaluate walks every customer's latest telemetry and schedules interventions
// for tick t+1 where a trigger fires.
func (d *Driver) evaluate(t int, snap model.Snapshot, completed map[string]bool) model.TickAnalysis {
	ta := model.TickAnalysis{Tick: t}
	for _, cl := range snap.CustomerLogs {
		if len(cl.Logs) == 0 || completed[cl.CustomerID] {
			continue
		}
		ta.CustomersActive++

		current := cl.Logs[len(cl.Logs)-1]
		state := current.State
		node := current.Node
		fraction := current.ChargeRemaining

		if state == model.StateHome {
			continue
		}
		if state == model.StateWaitingForCharger || state == model.StateCharging || state == model.StateDoneCharging {
			// the vehicle made it to a charger; the recommendation did its job
			d.pending.Clear(cl.CustomerID)
			continue
		}
		if p, ok := d.pending.Get(cl.CustomerID); ok && node == p.Station {
			log.Printf("driver: %s reached recommended station %s", cl.CustomerID, p.Station)
			d.pending.Clear(cl.CustomerID)
		}

		forward, destination := d.forwardPath(cl.CustomerID, node, current)
		if destination != "" && node == destination &&
			(state == model.StateTransitioningToNode || state == model.StateTransitioningToEdge) {
			continue
		}

		looping := false
		if node != "" {
			looping = d.Loops.Observe(cl.CustomerID, node)
			if looping {
				metrics.LoopsDetected.Inc()
				ta.LoopsDetected++
			}
		}

		maxCharge, consumption := vehicleParams(snap.Map, cl.CustomerID)
		chargeKwh := fraction * maxCharge

		emergency := fraction < d.Cfg.Thresholds.EmergencyThreshold
		remaining := d.remainingDistance(node, destination, forward, current.Path)
		if remaining > 0 && chargeKwh < remaining*consumption*d.Cfg.Thresholds.SafetyMargin {
			emergency = true
			log.Printf("driver: %s has %.1f km left, %.1f kWh on board", cl.CustomerID, remaining, chargeKwh)
		}
		if emergency {
			ta.Emergencies++
		}

		atNode := node != "" &&
			(state == model.StateTransitioningToNode || state == model.StateTransitioningToEdge)
		if !atNode {
			continue
		}
		trigger := triggerReason(fraction < d.Cfg.Thresholds.ProactiveThreshold, looping, emergency)
		if trigger == "" || !d.Cfg.DynamicIntervention {
			continue
		}
		if _, ok := d.pending.Get(cl.CustomerID); ok {
			continue
		}

		st, err := d.selector().Select(persona.Request{
			Persona:          cl.Persona,
			Origin:           node,
			ForwardPath:      forward,
			Tick:             t + 1,
			ChargeKwh:        chargeKwh,
			ConsumptionPerKm: consumption,
		})
		if err != nil {
			log.Printf("driver: %s needs charging (%s) but no station: %v", cl.CustomerID, trigger, err)
			continue
		}

		chargeTo := persona.ChargeTarget(d.Cfg, cl.Persona, remaining, maxCharge, consumption)
		d.sched.Add(t+1, model.Recommendation{
			CustomerID: cl.CustomerID,
			ChargingRecommendations: []model.ChargingAdvice{{NodeID: st.NodeID, ChargeTo: chargeTo}},
		})
		d.pending.Set(cl.CustomerID, st.NodeID, t+1)
		metrics.Recommendations.WithLabelValues(trigger).Inc()
		ta.Recommendations++
		log.Printf("driver: tick %d: %s -> station %s (%s, charge %.0f%%, chargeTo %.2f)",
			t+1, cl.CustomerID, st.NodeID, trigger, fraction*100, chargeTo)
	}
	return ta
}

// forwardPath returns the part of the customer's route still ahead of node,
// and the route's destination. The saved engine route is preferred; when the
// vehicle deviated from it the snapshot's own path is used instead.
func (d *Driver) forwardPath(customerID, node string, current model.CustomerTickLog) ([]string, string) {
	enginePath := d.paths[customerID]
	destination := ""
	if len(enginePath) > 0 {
		destination = enginePath[len(enginePath)-1]
	}

	if len(enginePath) > 0 && node != "" {
		for i, n := range enginePath {
			if n != node {
				continue
			}
			if i+1 < len(enginePath) {
				return enginePath[i+1:], destination
			}
			return enginePath[i:], destination
		}
	}
	if len(current.Path) > 0 {
		if destination == "" {
			destination = current.Path[len(current.Path)-1]
		}
		return current.Path, destination
	}
	return nil, destination
}

// remainingDistance measures the forward path edge by edge. A path broken by
// a deviation falls back to the snapshot's full reported path, then to the
// shortest path to the destination; when all fail the distance is unknown and
// the energy check is skipped.
func (d *Driver) remainingDistance(node, destination string, forward, reported []string) float64 {
	if dist, err := d.Router.PathDistance(forward); err == nil {
		return dist
	} else if !errors.Is(err, graph.ErrBrokenPath) {
		return 0
	}
	if dist, err := d.Router.PathDistance(reported); err == nil && dist > 0 {
		return dist
	}
	if node == "" || destination == "" {
		return 0
	}
	res := d.Router.ShortestPath(node, destination)
	if !res.Reachable() {
		return 0
	}
	return res.Distance
}

func triggerReason(proactive, looping, emergency bool) string {
	switch {
	case emergency:
		return "emergency"
	case looping:
		return "loop"
	case proactive:
		return "proactive"
	default:
		return ""
	}
}
