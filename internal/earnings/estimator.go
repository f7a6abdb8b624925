package earnings

import (
	"sort"
	"time"

	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
	"github.com/shopspring/decimal"
)

// MinPricePoints is the shortest price history worth estimating from
const MinPricePoints = 10

var hundred = decimal.NewFromInt(100)

// Estimate computes the average absolute close-to-close move across past
// earnings announcements and the next announcement after asOf.
//
// For each event the close on the day before and the day after the
// announcement are located independently, so a weekend or holiday on either
// side falls back to the nearest earlier trading day. Events with either side
// missing, or a non-positive before-price, are ignored.
func Estimate(symbol string, events []models.EarningsEvent, prices []models.PricePoint, asOf time.Time) (*models.EarningsSummary, error) {
	if len(events) == 0 {
		return nil, ErrNoEarnings
	}
	if len(prices) < MinPricePoints {
		return nil, ErrInsufficientPrices
	}

	moves := MovePercents(events, NewPriceIndex(prices))
	if len(moves) == 0 {
		return nil, ErrNoValidMoves
	}

	next, ok := NextEarningsDate(events, asOf)
	if !ok {
		return nil, ErrNoUpcomingEarnings
	}

	return &models.EarningsSummary{
		Symbol:             symbol,
		NextEarningsDate:   next,
		AverageMovePercent: AverageMove(moves).InexactFloat64(),
		ComputedAt:         asOf,
	}, nil
}

// MovePercents returns one observation per event with both sides priced
func MovePercents(events []models.EarningsEvent, idx *PriceIndex) []decimal.Decimal {
	moves := make([]decimal.Decimal, 0, len(events))
	for _, e := range events {
		day := models.NormalizeDate(e.Date)

		before, ok := idx.Locate(day.AddDate(0, 0, -1))
		if !ok || !before.IsPositive() {
			continue
		}
		after, ok := idx.Locate(day.AddDate(0, 0, 1))
		if !ok {
			continue
		}

		moves = append(moves, after.Sub(before).Abs().Div(before).Mul(hundred))
	}
	return moves
}

// AverageMove returns the mean of moves rounded to two decimal places,
// half away from zero. moves must not be empty.
func AverageMove(moves []decimal.Decimal) decimal.Decimal {
	return decimal.Avg(moves[0], moves[1:]...).Round(2)
}

// NextEarningsDate returns the earliest event date strictly after asOf's
// calendar day. Events are sorted first; provider order is not relied on.
func NextEarningsDate(events []models.EarningsEvent, asOf time.Time) (time.Time, bool) {
	dates := make([]time.Time, 0, len(events))
	for _, e := range events {
		dates = append(dates, models.NormalizeDate(e.Date))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	today := models.NormalizeDate(asOf)
	for _, d := range dates {
		if d.After(today) {
			return d, true
		}
	}
	return time.Time{}, false
}
