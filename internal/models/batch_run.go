package models

import "time"

// Batch run status constants
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusAborted   = "ABORTED"
)

// BatchRun is the persisted record of one scheduled run over the universe
type BatchRun struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	UniverseSize int        `json:"universe_size"`
	GroupSize    int        `json:"group_size"`
	Processed    int        `json:"processed"`
	Succeeded    int        `json:"succeeded"`
	Failed       int        `json:"failed"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Result returns the run's tallies
func (b *BatchRun) Result() RunResult {
	return RunResult{Processed: b.Processed, Succeeded: b.Succeeded, Failed: b.Failed}
}
