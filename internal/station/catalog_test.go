package station

import (
	"testing"

	"evadvisor/internal/graph"
	"evadvisor/internal/model"
)

func lineRouter(t *testing.T) *graph.Router {
	t.Helper()
	nodes := []model.Node{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	edges := []model.Edge{
		{FromNode: "A", ToNode: "B", Length: 10}, {FromNode: "B", ToNode: "A", Length: 10},
		{FromNode: "B", ToNode: "C", Length: 10}, {FromNode: "C", ToNode: "B", Length: 10},
	}
	ix, err := graph.NewIndex(nodes, edges)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return graph.NewRouter(ix)
}

func TestOperationalFilter(t *testing.T) {
	c := NewCatalog([]model.ChargingStation{
		{NodeID: "A", Operational: true, AvailableChargers: 2},
		{NodeID: "B", Operational: false, AvailableChargers: 2},
		{NodeID: "C", Operational: true, AvailableChargers: 0},
	}, nil)
	ops := c.Operational()
	if len(ops) != 1 || ops[0].NodeID != "A" {
		t.Fatalf("operational: got %+v", ops)
	}
}

func TestReachableHonorsMargin(t *testing.T) {
	r := lineRouter(t)
	stations := []model.ChargingStation{
		{NodeID: "B", Operational: true, AvailableChargers: 1},
		{NodeID: "C", Operational: true, AvailableChargers: 1},
	}
	// 12 kWh at 1 kWh/km, margin 1.05: B needs 10.5, C needs 21.
	got := Reachable(r, "A", stations, 12, 1, 1.05)
	if len(got) != 1 || got[0].NodeID != "B" {
		t.Fatalf("reachable: got %+v, want only B", got)
	}
	// Nothing reachable with a near-empty battery.
	if got := Reachable(r, "A", stations, 1, 1, 1.05); len(got) != 0 {
		t.Fatalf("reachable on empty battery: got %+v", got)
	}
}

// The filter never admits a station whose true shortest-path energy exceeds
// charge divided by the margin.
func TestReachableNeverOverAdmits(t *testing.T) {
	r := lineRouter(t)
	stations := []model.ChargingStation{{NodeID: "B"}, {NodeID: "C"}}
	const charge, consumption, margin = 15.0, 1.0, 1.2
	for _, s := range Reachable(r, "A", stations, charge, consumption, margin) {
		d := r.ShortestPath("A", s.NodeID).Distance
		if d*consumption > charge/margin {
			t.Fatalf("station %s admitted beyond margin: dist %v", s.NodeID, d)
		}
	}
}

func TestReachableSkipsDisconnected(t *testing.T) {
	r := lineRouter(t)
	stations := []model.ChargingStation{{NodeID: "Z"}}
	if got := Reachable(r, "A", stations, 1000, 1, 1.0); len(got) != 0 {
		t.Fatalf("disconnected station admitted: %+v", got)
	}
}

func TestZoneLookup(t *testing.T) {
	c := NewCatalog(nil, []model.Zone{{ID: "z1", BasePrice: 40}})
	z, ok := c.Zone("z1")
	if !ok || z.BasePrice != 40 {
		t.Fatalf("zone: got %+v %v", z, ok)
	}
	if _, ok := c.Zone("z9"); ok {
		t.Fatal("unknown zone resolved")
	}
}
