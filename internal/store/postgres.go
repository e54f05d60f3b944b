package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"evadvisor/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) CreateRun(ctx context.Context, mapName, strategy string) (model.Run, error) {
	run := model.Run{
		ID:        uuid.New().String(),
		MapName:   mapName,
		Strategy:  strategy,
		Status:    model.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO runs (id, map_name, strategy, status, started_at) VALUES ($1,$2,$3,$4,$5)`,
		run.ID, run.MapName, run.Strategy, run.Status, run.StartedAt)
	if err != nil {
		return model.Run{}, err
	}
	return run, nil
}

func (p *Postgres) FinishRun(ctx context.Context, runID string, final model.Run) (model.Run, error) {
	scheduleJSON, err := json.Marshal(final.Schedule)
	if err != nil {
		return model.Run{}, err
	}
	now := time.Now().UTC()
	res, err := p.db.ExecContext(ctx,
		`UPDATE runs SET status=$2, finished_at=$3, score=$4, kwh_revenue=$5, completion_score=$6, ticks_played=$7, schedule=$8 WHERE id=$1`,
		runID, final.Status, now, final.Score, final.KwhRevenue, final.CompletionScore, final.TicksPlayed, scheduleJSON)
	if err != nil {
		return model.Run{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Run{}, ErrNotFound
	}
	return p.GetRun(ctx, runID)
}

func (p *Postgres) GetRun(ctx context.Context, runID string) (model.Run, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, map_name, strategy, status, started_at, finished_at, score, kwh_revenue, completion_score, ticks_played, schedule FROM runs WHERE id=$1`,
		runID)
	return scanRun(row)
}

func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, map_name, strategy, status, started_at, finished_at, score, kwh_revenue, completion_score, ticks_played, schedule FROM runs ORDER BY started_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveTickAnalysis(ctx context.Context, runID string, ta model.TickAnalysis) error {
	states, err := json.Marshal(ta.States)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO tick_analyses (run_id, tick, score, kwh_revenue, completion_score, customers_active, customers_done, recommendations, loops_detected, emergencies, new_zone_logs, sim_duration_ms, states)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		runID, ta.Tick, ta.Score, ta.KwhRevenue, ta.CompletionScore, ta.CustomersActive, ta.CustomersDone, ta.Recommendations, ta.LoopsDetected, ta.Emergencies, ta.NewZoneLogs, ta.SimDurationMs, states)
	return err
}

func (p *Postgres) ListTickAnalyses(ctx context.Context, runID string) ([]model.TickAnalysis, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT tick, score, kwh_revenue, completion_score, customers_active, customers_done, recommendations, loops_detected, emergencies, new_zone_logs, sim_duration_ms, states FROM tick_analyses WHERE run_id=$1 ORDER BY tick`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TickAnalysis{}
	for rows.Next() {
		var ta model.TickAnalysis
		var states []byte
		if err := rows.Scan(&ta.Tick, &ta.Score, &ta.KwhRevenue, &ta.CompletionScore, &ta.CustomersActive, &ta.CustomersDone, &ta.Recommendations, &ta.LoopsDetected, &ta.Emergencies, &ta.NewZoneLogs, &ta.SimDurationMs, &states); err != nil {
			return nil, err
		}
		if len(states) > 0 {
			if err := json.Unmarshal(states, &ta.States); err != nil {
				return nil, err
			}
		}
		out = append(out, ta)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (model.Run, error) {
	var run model.Run
	var finishedAt sql.NullTime
	var schedule []byte
	err := r.Scan(&run.ID, &run.MapName, &run.Strategy, &run.Status, &run.StartedAt,
		&finishedAt, &run.Score, &run.KwhRevenue, &run.CompletionScore, &run.TicksPlayed, &schedule)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, ErrNotFound
	}
	if err != nil {
		return model.Run{}, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &run.Schedule); err != nil {
			return model.Run{}, err
		}
	}
	return run, nil
}
