// Package schedule accumulates per-tick charging recommendations and renders
// them into the cumulative input the simulator replays from tick zero.
package schedule

import (
	"sort"

	"evadvisor/internal/model"
)

// Schedule maps ticks to the recommendations issued for them. The simulator
// is stateless between calls, so every submission includes all ticks up to
// the requested one; Schedule keeps the authoritative copy.
type Schedule struct {
	byTick map[int]map[string]model.Recommendation
}

// New returns an empty schedule.
func New() *Schedule {
	return &Schedule{byTick: make(map[int]map[string]model.Recommendation)}
}

// Add records a recommendation for a customer at a tick. A second add for the
// same (tick, customer) pair replaces the first, so re-planning a customer is
// idempotent.
func (s *Schedule) Add(tick int, rec model.Recommendation) {
	m, ok := s.byTick[tick]
	if !ok {
		m = make(map[string]model.Recommendation)
		s.byTick[tick] = m
	}
	m[rec.CustomerID] = rec
}

// At returns the recommendations recorded for one tick, sorted by customer ID.
func (s *Schedule) At(tick int) []model.Recommendation {
	m := s.byTick[tick]
	if len(m) == 0 {
		return nil
	}
	recs := make([]model.Recommendation, 0, len(m))
	for _, r := range m {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CustomerID < recs[j].CustomerID })
	return recs
}

// InputThrough renders all ticks up to and including t, ascending. Ticks with
// no recommendations are omitted; the simulator treats them as empty.
func (s *Schedule) InputThrough(t int) []model.TickInput {
	ticks := make([]int, 0, len(s.byTick))
	for tick := range s.byTick {
		if tick <= t {
			ticks = append(ticks, tick)
		}
	}
	sort.Ints(ticks)
	out := make([]model.TickInput, 0, len(ticks))
	for _, tick := range ticks {
		out = append(out, model.TickInput{Tick: tick, CustomerRecommendations: s.At(tick)})
	}
	return out
}

// Len returns the number of ticks holding at least one recommendation.
func (s *Schedule) Len() int { return len(s.byTick) }

// PendingRec is an issued charging stop that has not been observed to
// complete yet. At most one is tracked per customer; issuing another before
// the first resolves would thrash the vehicle between stations.
type PendingRec struct {
	Station string
	Tick    int
}

// PendingSet tracks outstanding recommendations by customer ID.
type PendingSet map[string]PendingRec

// NewPendingSet returns an empty set.
func NewPendingSet() PendingSet { return make(PendingSet) }

// Set records an outstanding recommendation for the customer.
func (p PendingSet) Set(customerID, station string, tick int) {
	p[customerID] = PendingRec{Station: station, Tick: tick}
}

// Get returns the customer's outstanding recommendation, if any.
func (p PendingSet) Get(customerID string) (PendingRec, bool) {
	r, ok := p[customerID]
	return r, ok
}

// Clear drops the customer's outstanding recommendation.
func (p PendingSet) Clear(customerID string) { delete(p, customerID) }
