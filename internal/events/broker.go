// Package events fans out run progress (tick analyses, final scores) to
// subscribers such as the websocket stream. Events are keyed by run ID.
package events

import "sync"

// Event is one run progress notification.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Broker fans events out to per-run subscribers.
type Broker interface {
	Subscribe(runID string) chan Event
	Unsubscribe(runID string, ch chan Event)
	Publish(runID string, evt Event)
}

// Memory is the in-process Broker used when no REDIS_URL is set.
type Memory struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Memory) Subscribe(runID string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	if b.subs[runID] == nil {
		b.subs[runID] = map[chan Event]struct{}{}
	}
	b.subs[runID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Memory) Unsubscribe(runID string, ch chan Event) {
	b.mu.Lock()
	m := b.subs[runID]
	_, subscribed := m[ch]
	if subscribed {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, runID)
		}
	}
	b.mu.Unlock()
	if subscribed {
		close(ch)
	}
}

// Publish delivers evt to current subscribers. Slow subscribers drop events
// rather than stall the run loop.
func (b *Memory) Publish(runID string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[runID] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
