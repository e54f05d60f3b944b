package model

import "time"

// Run statuses.
const (
	RunRunning  = "running"
	RunFinished = "finished"
	RunFailed   = "failed"
)

// Run is one advisor run against the simulation engine.
type Run struct {
	ID         string     `json:"id"`
	MapName    string     `json:"mapName"`
	Strategy   string     `json:"strategy"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	// Final snapshot figures, set when the run finishes.
	Score           float64 `json:"score"`
	KwhRevenue      float64 `json:"kwhRevenue"`
	CompletionScore float64 `json:"completionScore"`
	TicksPlayed     int     `json:"ticksPlayed"`

	// Schedule is the full recommendation input of the final submission.
	Schedule []TickInput `json:"schedule,omitempty"`
}

// TickAnalysis summarizes one driver iteration.
type TickAnalysis struct {
	Tick            int            `json:"tick"`
	Score           float64        `json:"score"`
	KwhRevenue      float64        `json:"kwhRevenue"`
	CompletionScore float64        `json:"completionScore"`
	CustomersActive int            `json:"customersActive"`
	CustomersDone   int            `json:"customersDone"`
	Recommendations int            `json:"recommendations"`
	LoopsDetected   int            `json:"loopsDetected"`
	Emergencies     int            `json:"emergencies"`
	NewZoneLogs     int            `json:"newZoneLogs"`
	SimDurationMs   int64          `json:"simDurationMs"`
	States          map[string]int `json:"states,omitempty"`
}
