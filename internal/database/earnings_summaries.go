package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

// UpsertEarningsSummary stores the latest summary for a symbol, replacing
// any previous row
func (db *DB) UpsertEarningsSummary(s *models.EarningsSummary) error {
	query := `
		INSERT INTO earnings_summaries (symbol, next_earnings_date, avg_move_percent, computed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol) DO UPDATE SET
			next_earnings_date = EXCLUDED.next_earnings_date,
			avg_move_percent = EXCLUDED.avg_move_percent,
			computed_at = EXCLUDED.computed_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := db.conn.Exec(query,
		s.Symbol,
		s.NextEarningsDate.Format(models.DateLayout),
		decimal.NewFromFloat(s.AverageMovePercent),
		s.ComputedAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert earnings summary for %s: %w", s.Symbol, err)
	}
	return nil
}

// GetEarningsSummary retrieves the stored summary for a symbol
func (db *DB) GetEarningsSummary(symbol string) (*models.EarningsSummary, error) {
	query := `
		SELECT symbol, next_earnings_date, avg_move_percent, computed_at
		FROM earnings_summaries
		WHERE symbol = $1
	`
	var s models.EarningsSummary
	var nextDate time.Time
	var avg decimal.Decimal

	err := db.conn.QueryRow(query, symbol).Scan(&s.Symbol, &nextDate, &avg, &s.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("earnings summary %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get earnings summary: %w", err)
	}

	s.NextEarningsDate = models.NormalizeDate(nextDate)
	s.AverageMovePercent = avg.InexactFloat64()
	s.ComputedAt = s.ComputedAt.UTC()
	return &s, nil
}
