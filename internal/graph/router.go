package graph

import (
	"container/heap"
	"math"
)

// Result is a shortest-path answer. An unreachable or unknown endpoint yields
// Distance = +Inf and a nil Path.
type Result struct {
	Distance float64
	Path     []string
}

// Reachable reports whether the query found a path.
func (r Result) Reachable() bool { return !math.IsInf(r.Distance, 1) }

// Router answers point-to-point shortest-path queries over an Index.
//
// Queries within one tick are memoized by (from, to); the driver calls
// ResetMemo at each tick boundary. The memo is a pure performance aid — the
// graph is immutable for the lifetime of a run.
type Router struct {
	ix   *Index
	memo map[memoKey]Result
}

type memoKey struct{ from, to string }

// NewRouter creates a Router over ix.
func NewRouter(ix *Index) *Router {
	return &Router{ix: ix, memo: make(map[memoKey]Result)}
}

// ResetMemo drops all memoized query results.
func (r *Router) ResetMemo() {
	r.memo = make(map[memoKey]Result)
}

// Index returns the underlying adjacency index.
func (r *Router) Index() *Index { return r.ix }

// ShortestPath runs Dijkstra from start to end. Ties in the frontier are
// broken by node ID so expansion order, and therefore the returned path, is
// deterministic.
func (r *Router) ShortestPath(start, end string) Result {
	key := memoKey{start, end}
	if res, ok := r.memo[key]; ok {
		return res
	}
	res := r.dijkstra(start, end)
	r.memo[key] = res
	return res
}

func (r *Router) dijkstra(start, end string) Result {
	unreachable := Result{Distance: math.Inf(1)}
	if !r.ix.HasNode(start) || !r.ix.HasNode(end) {
		return unreachable
	}
	if start == end {
		return Result{Distance: 0, Path: []string{start}}
	}

	dist := map[string]float64{start: 0}
	prev := map[string]string{}
	done := map[string]bool{}

	pq := &frontier{{node: start, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(frontierItem)
		if done[cur.node] {
			continue // stale duplicate from lazy decrease-key
		}
		done[cur.node] = true

		if cur.node == end {
			return Result{Distance: cur.dist, Path: rebuild(prev, start, end)}
		}

		for _, arc := range r.ix.Neighbors(cur.node) {
			if done[arc.To] {
				continue
			}
			nd := cur.dist + arc.Length
			if old, seen := dist[arc.To]; !seen || nd < old {
				dist[arc.To] = nd
				prev[arc.To] = cur.node
				heap.Push(pq, frontierItem{node: arc.To, dist: nd})
			}
		}
	}
	return unreachable
}

func rebuild(prev map[string]string, start, end string) []string {
	path := []string{end}
	for cur := end; cur != start; {
		cur = prev[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathDistance sums the declared edge lengths along path. If any consecutive
// pair is not a declared edge it returns (0, ErrBrokenPath) rather than a
// partial sum. Paths shorter than two nodes have distance zero.
func (r *Router) PathDistance(path []string) (float64, error) {
	if len(path) < 2 {
		return 0, nil
	}
	total := 0.0
	for i := 0; i < len(path)-1; i++ {
		length, ok := r.ix.EdgeLength(path[i], path[i+1])
		if !ok {
			return 0, ErrBrokenPath
		}
		total += length
	}
	return total, nil
}

// frontier is a min-heap ordered by (distance, node ID).
type frontierItem struct {
	node string
	dist float64
}

type frontier []frontierItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].node < f[j].node
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	it := old[n-1]
	*f = old[:n-1]
	return it
}
