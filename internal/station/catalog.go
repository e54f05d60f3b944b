// Package station indexes charging stations and restricts candidates to
// those reachable with the customer's current charge.
package station

import (
	"evadvisor/internal/graph"
	"evadvisor/internal/model"
)

// Catalog indexes the station roster and zone data.
type Catalog struct {
	stations []model.ChargingStation
	byNode   map[string]model.ChargingStation
	zones    map[string]model.Zone
}

// NewCatalog builds a Catalog. Station order is preserved so candidate
// iteration stays deterministic.
func NewCatalog(stations []model.ChargingStation, zones []model.Zone) *Catalog {
	c := &Catalog{
		stations: stations,
		byNode:   make(map[string]model.ChargingStation, len(stations)),
		zones:    make(map[string]model.Zone, len(zones)),
	}
	for _, s := range stations {
		c.byNode[s.NodeID] = s
	}
	for _, z := range zones {
		c.zones[z.ID] = z
	}
	return c
}

// AtNode returns the station at a node, if any.
func (c *Catalog) AtNode(nodeID string) (model.ChargingStation, bool) {
	s, ok := c.byNode[nodeID]
	return s, ok
}

// Zone returns zone data for id.
func (c *Catalog) Zone(id string) (model.Zone, bool) {
	z, ok := c.zones[id]
	return z, ok
}

// Operational returns stations that are operational and have at least one
// available charger. An empty result means no station can serve anyone this
// tick; callers log and skip charging logic.
func (c *Catalog) Operational() []model.ChargingStation {
	var out []model.ChargingStation
	for _, s := range c.stations {
		if s.Operational && s.AvailableChargers > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Reachable filters candidates to stations the customer can reach from `from`
// with the current charge: chargeKwh must cover
// shortestPath(from, station) * consumptionPerKm * margin.
// An empty result means the customer proceeds unassisted.
func Reachable(r *graph.Router, from string, candidates []model.ChargingStation, chargeKwh, consumptionPerKm, margin float64) []model.ChargingStation {
	var out []model.ChargingStation
	for _, s := range candidates {
		res := r.ShortestPath(from, s.NodeID)
		if !res.Reachable() {
			continue
		}
		if chargeKwh >= res.Distance*consumptionPerKm*margin {
			out = append(out, s)
		}
	}
	return out
}
