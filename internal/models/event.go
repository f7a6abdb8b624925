package models

import "time"

// Event type constants
const (
	EventSummaryUpdated   = "EARNINGS_SUMMARY_UPDATED"
	EventRunCompleted     = "BATCH_RUN_COMPLETED"
	EventRefreshRequested = "EARNINGS_REFRESH_REQUESTED"
)

// SummaryEvent represents a Kafka event for a refreshed earnings summary
type SummaryEvent struct {
	EventType string           `json:"event_type"`
	Summary   *EarningsSummary `json:"summary,omitempty"`
	Symbol    string           `json:"symbol"`
	Timestamp time.Time        `json:"timestamp"`
}

// RunEvent represents a Kafka event for a finished batch run
type RunEvent struct {
	EventType string    `json:"event_type"`
	RunID     string    `json:"run_id,omitempty"`
	Result    RunResult `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

// RefreshRequest asks for one symbol to be recomputed outside the schedule
type RefreshRequest struct {
	EventType   string    `json:"event_type"`
	Symbol      string    `json:"symbol"`
	RequestedAt time.Time `json:"requested_at"`
}
