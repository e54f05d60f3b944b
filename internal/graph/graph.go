// Package graph provides the road-network index and shortest-path queries
// for the charging advisor.
package graph

import (
	"errors"
	"fmt"

	"evadvisor/internal/model"
)

// ErrBrokenPath reports a path whose consecutive nodes are not joined by a
// declared edge. Callers must treat the distance as undefined, not partial.
var ErrBrokenPath = errors.New("broken path segment")

// Arc is one outgoing neighbor with its edge length.
type Arc struct {
	To     string
	Length float64
}

// Index is the adjacency structure built from declared edges. Only declared
// directions are represented; a reverse edge exists only if declared.
type Index struct {
	adj   map[string][]Arc
	nodes map[string]model.Node
}

// NewIndex builds the adjacency index. Edges referencing undeclared nodes and
// edges with negative length are rejected.
func NewIndex(nodes []model.Node, edges []model.Edge) (*Index, error) {
	ix := &Index{
		adj:   make(map[string][]Arc, len(nodes)),
		nodes: make(map[string]model.Node, len(nodes)),
	}
	for _, n := range nodes {
		if _, dup := ix.nodes[n.ID]; dup {
			return nil, fmt.Errorf("node %q declared twice", n.ID)
		}
		ix.nodes[n.ID] = n
		ix.adj[n.ID] = nil
	}
	for _, e := range edges {
		if e.Length < 0 {
			return nil, fmt.Errorf("edge %s->%s has negative length %v", e.FromNode, e.ToNode, e.Length)
		}
		if _, ok := ix.nodes[e.FromNode]; !ok {
			return nil, fmt.Errorf("edge references unknown node %q", e.FromNode)
		}
		if _, ok := ix.nodes[e.ToNode]; !ok {
			return nil, fmt.Errorf("edge references unknown node %q", e.ToNode)
		}
		ix.adj[e.FromNode] = append(ix.adj[e.FromNode], Arc{To: e.ToNode, Length: e.Length})
	}
	return ix, nil
}

// HasNode reports whether id is a declared node.
func (ix *Index) HasNode(id string) bool {
	_, ok := ix.nodes[id]
	return ok
}

// Node returns the declared node for id.
func (ix *Index) Node(id string) (model.Node, bool) {
	n, ok := ix.nodes[id]
	return n, ok
}

// Neighbors returns the outgoing arcs of a node in declaration order.
func (ix *Index) Neighbors(id string) []Arc {
	return ix.adj[id]
}

// EdgeLength returns the declared length from u to v.
func (ix *Index) EdgeLength(u, v string) (float64, bool) {
	for _, a := range ix.adj[u] {
		if a.To == v {
			return a.Length, true
		}
	}
	return 0, false
}

// NodeCount returns the number of declared nodes.
func (ix *Index) NodeCount() int { return len(ix.nodes) }
