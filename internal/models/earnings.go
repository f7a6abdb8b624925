package models

import (
	"encoding/json"
	"time"
)

// EarningsEvent is a single earnings announcement for a symbol
type EarningsEvent struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
}

// EarningsSummary is the cached per-symbol earnings move statistic
type EarningsSummary struct {
	Symbol             string    `json:"symbol"`
	NextEarningsDate   time.Time `json:"-"`
	AverageMovePercent float64   `json:"avg_move_percent"`
	ComputedAt         time.Time `json:"computed_at"`
}

type earningsSummaryJSON struct {
	Symbol             string    `json:"symbol"`
	NextEarningsDate   string    `json:"next_earnings_date"`
	AverageMovePercent float64   `json:"avg_move_percent"`
	ComputedAt         time.Time `json:"computed_at"`
}

// MarshalJSON writes the next earnings date as a plain calendar date
func (s EarningsSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(earningsSummaryJSON{
		Symbol:             s.Symbol,
		NextEarningsDate:   s.NextEarningsDate.Format(DateLayout),
		AverageMovePercent: s.AverageMovePercent,
		ComputedAt:         s.ComputedAt,
	})
}

// UnmarshalJSON reads the format written by MarshalJSON
func (s *EarningsSummary) UnmarshalJSON(data []byte) error {
	var raw earningsSummaryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	next, err := ParseDate(raw.NextEarningsDate)
	if err != nil {
		return err
	}

	s.Symbol = raw.Symbol
	s.NextEarningsDate = next
	s.AverageMovePercent = raw.AverageMovePercent
	s.ComputedAt = raw.ComputedAt
	return nil
}

// RunResult holds the aggregate tallies of a batch run
type RunResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Add accumulates other into r
func (r *RunResult) Add(other RunResult) {
	r.Processed += other.Processed
	r.Succeeded += other.Succeeded
	r.Failed += other.Failed
}
