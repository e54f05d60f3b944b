package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"evadvisor/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.Mutex
	runs     map[string]model.Run            // id -> run
	order    []string                        // creation order
	analyses map[string][]model.TickAnalysis // runId -> analyses
}

func NewMemory() *Memory {
	return &Memory{
		runs:     map[string]model.Run{},
		analyses: map[string][]model.TickAnalysis{},
	}
}

func (m *Memory) CreateRun(ctx context.Context, mapName, strategy string) (model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := model.Run{
		ID:        uuid.New().String(),
		MapName:   mapName,
		Strategy:  strategy,
		Status:    model.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	m.runs[run.ID] = run
	m.order = append(m.order, run.ID)
	return run, nil
}

func (m *Memory) FinishRun(ctx context.Context, runID string, final model.Run) (model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return model.Run{}, ErrNotFound
	}
	now := time.Now().UTC()
	run.Status = final.Status
	run.FinishedAt = &now
	run.Score = final.Score
	run.KwhRevenue = final.KwhRevenue
	run.CompletionScore = final.CompletionScore
	run.TicksPlayed = final.TicksPlayed
	run.Schedule = final.Schedule
	m.runs[runID] = run
	return run, nil
}

func (m *Memory) GetRun(ctx context.Context, runID string) (model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return model.Run{}, ErrNotFound
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (m *Memory) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := []model.Run{}
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[m.order[i]])
	}
	return out, nil
}

func (m *Memory) SaveTickAnalysis(ctx context.Context, runID string, ta model.TickAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; !ok {
		return ErrNotFound
	}
	m.analyses[runID] = append(m.analyses[runID], ta)
	return nil
}

func (m *Memory) ListTickAnalyses(ctx context.Context, runID string) ([]model.TickAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; !ok {
		return nil, ErrNotFound
	}
	out := append([]model.TickAnalysis(nil), m.analyses[runID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out, nil
}
