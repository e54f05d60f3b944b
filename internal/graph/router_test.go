package graph

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"evadvisor/internal/model"
)

func nodes(ids ...string) []model.Node {
	out := make([]model.Node, len(ids))
	for i, id := range ids {
		out[i] = model.Node{ID: id}
	}
	return out
}

// bidi declares both directions, matching how map files declare roads.
func bidi(u, v string, l float64) []model.Edge {
	return []model.Edge{{FromNode: u, ToNode: v, Length: l}, {FromNode: v, ToNode: u, Length: l}}
}

func mustIndex(t *testing.T, ns []model.Node, es []model.Edge) *Index {
	t.Helper()
	ix, err := NewIndex(ns, es)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return ix
}

func lineABC(t *testing.T) *Router {
	t.Helper()
	es := append(bidi("A", "B", 10), bidi("B", "C", 10)...)
	return NewRouter(mustIndex(t, nodes("A", "B", "C"), es))
}

func TestShortestPathSelf(t *testing.T) {
	r := lineABC(t)
	res := r.ShortestPath("B", "B")
	if res.Distance != 0 || !reflect.DeepEqual(res.Path, []string{"B"}) {
		t.Fatalf("self path: got %+v", res)
	}
}

func TestShortestPathLine(t *testing.T) {
	r := lineABC(t)
	res := r.ShortestPath("A", "C")
	if res.Distance != 20 {
		t.Fatalf("distance: got %v, want 20", res.Distance)
	}
	if !reflect.DeepEqual(res.Path, []string{"A", "B", "C"}) {
		t.Fatalf("path: got %v", res.Path)
	}
}

func TestShortestPathUnknownOrUnreachable(t *testing.T) {
	es := bidi("A", "B", 5)
	r := NewRouter(mustIndex(t, nodes("A", "B", "C"), es))
	for _, tc := range [][2]string{{"A", "Z"}, {"Z", "A"}, {"A", "C"}} {
		res := r.ShortestPath(tc[0], tc[1])
		if !math.IsInf(res.Distance, 1) || res.Path != nil {
			t.Fatalf("%s->%s: got %+v, want unreachable", tc[0], tc[1], res)
		}
	}
}

// A declared edge is an upper bound on the shortest distance between its
// endpoints.
func TestDeclaredEdgeUpperBound(t *testing.T) {
	es := append(bidi("A", "B", 10), bidi("B", "C", 3)...)
	es = append(es, bidi("A", "C", 100)...) // long direct edge, short via B
	r := NewRouter(mustIndex(t, nodes("A", "B", "C"), es))
	for _, e := range es {
		res := r.ShortestPath(e.FromNode, e.ToNode)
		if res.Distance > e.Length {
			t.Fatalf("shortest %s->%s = %v exceeds declared %v", e.FromNode, e.ToNode, res.Distance, e.Length)
		}
	}
	if d := r.ShortestPath("A", "C").Distance; d != 13 {
		t.Fatalf("A->C: got %v, want 13 via B", d)
	}
}

func TestPathDistanceMatchesShortestPath(t *testing.T) {
	es := append(bidi("A", "B", 10), bidi("B", "C", 3)...)
	es = append(es, bidi("A", "D", 2)...)
	es = append(es, bidi("D", "C", 4)...)
	r := NewRouter(mustIndex(t, nodes("A", "B", "C", "D"), es))
	for _, from := range []string{"A", "B", "C", "D"} {
		for _, to := range []string{"A", "B", "C", "D"} {
			res := r.ShortestPath(from, to)
			d, err := r.PathDistance(res.Path)
			if err != nil {
				t.Fatalf("%s->%s: PathDistance: %v", from, to, err)
			}
			if d != res.Distance {
				t.Fatalf("%s->%s: PathDistance %v != shortest %v", from, to, d, res.Distance)
			}
		}
	}
}

func TestPathDistanceBrokenSegment(t *testing.T) {
	r := lineABC(t)
	d, err := r.PathDistance([]string{"A", "C"}) // no declared A-C edge
	if !errors.Is(err, ErrBrokenPath) {
		t.Fatalf("err: got %v, want ErrBrokenPath", err)
	}
	if d != 0 {
		t.Fatalf("broken path distance: got %v, want 0", d)
	}
}

func TestDirectedEdgesNotMirrored(t *testing.T) {
	es := []model.Edge{{FromNode: "A", ToNode: "B", Length: 1}}
	r := NewRouter(mustIndex(t, nodes("A", "B"), es))
	if !r.ShortestPath("A", "B").Reachable() {
		t.Fatal("declared direction should be reachable")
	}
	if r.ShortestPath("B", "A").Reachable() {
		t.Fatal("reverse direction was not declared and must not exist")
	}
}

func TestDeterministicTieBreak(t *testing.T) {
	// Two equal-length branches A-B-D and A-C-D; the B branch must win every
	// time because expansion order ties break on node ID.
	es := append(bidi("A", "B", 5), bidi("B", "D", 5)...)
	es = append(es, bidi("A", "C", 5)...)
	es = append(es, bidi("C", "D", 5)...)
	first := NewRouter(mustIndex(t, nodes("A", "B", "C", "D"), es)).ShortestPath("A", "D")
	for i := 0; i < 10; i++ {
		r := NewRouter(mustIndex(t, nodes("A", "B", "C", "D"), es))
		res := r.ShortestPath("A", "D")
		if !reflect.DeepEqual(res.Path, first.Path) {
			t.Fatalf("run %d: path %v differs from %v", i, res.Path, first.Path)
		}
	}
	if !reflect.DeepEqual(first.Path, []string{"A", "B", "D"}) {
		t.Fatalf("tie break: got %v, want A,B,D", first.Path)
	}
}

func TestMemoResets(t *testing.T) {
	r := lineABC(t)
	a := r.ShortestPath("A", "C")
	b := r.ShortestPath("A", "C") // memo hit
	if a.Distance != b.Distance {
		t.Fatalf("memo changed answer: %v vs %v", a.Distance, b.Distance)
	}
	r.ResetMemo()
	c := r.ShortestPath("A", "C")
	if c.Distance != a.Distance {
		t.Fatalf("answer changed after reset: %v vs %v", c.Distance, a.Distance)
	}
}

func TestNewIndexRejectsBadInput(t *testing.T) {
	if _, err := NewIndex(nodes("A"), []model.Edge{{FromNode: "A", ToNode: "Z", Length: 1}}); err == nil {
		t.Fatal("expected error for unknown endpoint")
	}
	if _, err := NewIndex(nodes("A", "B"), []model.Edge{{FromNode: "A", ToNode: "B", Length: -1}}); err == nil {
		t.Fatal("expected error for negative length")
	}
	if _, err := NewIndex(append(nodes("A"), nodes("A")...), nil); err == nil {
		t.Fatal("expected error for duplicate node")
	}
}
