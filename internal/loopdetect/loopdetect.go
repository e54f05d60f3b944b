// Package loopdetect spots vehicles oscillating between a small set of nodes,
// a failure mode of customers who cannot reach their destination on the
// remaining charge. A detected loop triggers an intervention upstream.
package loopdetect

import "evadvisor/internal/config"

// Detector keeps a bounded per-customer trail of visited nodes and checks it
// for short cycles. Consecutive reports of the same node collapse into one
// entry, so a vehicle parked at a node never counts as looping.
type Detector struct {
	cfg    config.LoopDetection
	trails map[string][]string
}

// NewDetector returns a detector with the given tuning. A disabled config
// makes Observe a no-op that always reports false.
func NewDetector(cfg config.LoopDetection) *Detector {
	return &Detector{cfg: cfg, trails: make(map[string][]string)}
}

// Observe records that the customer is at node and reports whether its recent
// trail forms a two- or three-node cycle.
func (d *Detector) Observe(customerID, node string) bool {
	if !d.cfg.Enabled {
		return false
	}
	trail := d.trails[customerID]
	if n := len(trail); n > 0 && trail[n-1] == node {
		return false
	}
	trail = append(trail, node)
	if over := len(trail) - d.cfg.LookbackTicks; over > 0 {
		trail = trail[over:]
	}
	d.trails[customerID] = trail
	return hasTwoCycle(trail, d.cfg.TwoNodeMinVisits) || hasThreeCycle(trail, d.cfg.ThreeNodeMinVisits)
}

// Reset drops the customer's trail, typically after an intervention or when
// the customer finishes.
func (d *Detector) Reset(customerID string) {
	delete(d.trails, customerID)
}

// hasTwoCycle reports whether the last n entries strictly alternate between
// exactly two nodes (A,B,A,B,...).
func hasTwoCycle(trail []string, n int) bool {
	if n < 4 || len(trail) < n {
		return false
	}
	tail := trail[len(trail)-n:]
	a, b := tail[0], tail[1]
	if a == b {
		return false
	}
	for i, node := range tail {
		want := a
		if i%2 == 1 {
			want = b
		}
		if node != want {
			return false
		}
	}
	return true
}

// hasThreeCycle reports whether the last n entries repeat a three-node pattern
// (A,B,C,A,B,C,...) over exactly three distinct nodes. n must be a multiple
// of three.
func hasThreeCycle(trail []string, n int) bool {
	if n < 6 || n%3 != 0 || len(trail) < n {
		return false
	}
	tail := trail[len(trail)-n:]
	a, b, c := tail[0], tail[1], tail[2]
	if a == b || b == c || a == c {
		return false
	}
	for i, node := range tail {
		if node != tail[i%3] {
			return false
		}
	}
	return true
}
