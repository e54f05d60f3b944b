// Package store persists run artifacts: run records and per-tick analyses.
// Memory is the default; Postgres is used when DATABASE_URL is set.
package store

import (
	"context"
	"errors"
	"os"

	"evadvisor/internal/model"
)

// Store is the persistence interface used by the iteration driver and the
// operational HTTP endpoints.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, mapName, strategy string) (model.Run, error)
	FinishRun(ctx context.Context, runID string, final model.Run) (model.Run, error)
	GetRun(ctx context.Context, runID string) (model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Tick analyses
	SaveTickAnalysis(ctx context.Context, runID string, ta model.TickAnalysis) error
	ListTickAnalyses(ctx context.Context, runID string) ([]model.TickAnalysis, error)
}

var ErrNotFound = errors.New("not found")

// FromEnv selects the store: Postgres when DATABASE_URL is set, otherwise
// memory.
func FromEnv() (Store, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return NewPostgres(dsn)
	}
	return NewMemory(), nil
}
