package energy

import (
	"sort"

	"evadvisor/internal/model"
)

// History accumulates the simulator's per-zone energy logs across a run.
// Entries are unique per tick and kept sorted ascending. It has a single
// writer (the iteration driver) and is not safe for concurrent mutation.
type History struct {
	logs  []model.TickZoneLog
	ticks map[int]struct{}
}

// NewHistory returns an empty zone-energy history.
func NewHistory() *History {
	return &History{ticks: make(map[int]struct{})}
}

// Merge appends entries for ticks not yet seen and re-sorts. The simulator
// returns cumulative logs, so most entries on each call are duplicates.
// Returns the number of new entries.
func (h *History) Merge(logs []model.TickZoneLog) int {
	added := 0
	for _, l := range logs {
		if _, seen := h.ticks[l.Tick]; seen {
			continue
		}
		h.ticks[l.Tick] = struct{}{}
		h.logs = append(h.logs, l)
		added++
	}
	if added > 0 {
		sort.Slice(h.logs, func(i, j int) bool { return h.logs[i].Tick < h.logs[j].Tick })
	}
	return added
}

// Len returns the number of distinct ticks collected.
func (h *History) Len() int { return len(h.logs) }

// GreenPercentage returns the green share (0..100) of a zone's production at
// exactly the given tick. The second result is false when the tick or zone is
// absent, or the zone produced nothing.
func (h *History) GreenPercentage(zoneID string, tick int) (float64, bool) {
	if _, seen := h.ticks[tick]; !seen {
		return 0, false
	}
	i := sort.Search(len(h.logs), func(i int) bool { return h.logs[i].Tick >= tick })
	if i == len(h.logs) || h.logs[i].Tick != tick {
		return 0, false
	}
	for _, z := range h.logs[i].Zones {
		if z.ZoneID != zoneID {
			continue
		}
		if z.TotalProduction <= 0 {
			return 0, false
		}
		green := 0.0
		for _, src := range z.SourceInfo {
			if src.IsGreen {
				green += src.Production
			}
		}
		return green / z.TotalProduction * 100, true
	}
	return 0, false
}
