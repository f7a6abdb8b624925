package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used by the market data provider
// and in cached summaries
const DateLayout = "2006-01-02"

// PricePoint represents the daily close for a symbol on one trading day
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// NormalizeDate strips the time-of-day and location from t, keeping the
// calendar date as observed in t's own location
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(t), nil
}
