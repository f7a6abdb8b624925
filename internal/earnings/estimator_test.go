package earnings

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

func events(symbol string, dates ...string) []models.EarningsEvent {
	out := make([]models.EarningsEvent, 0, len(dates))
	for _, d := range dates {
		out = append(out, models.EarningsEvent{Symbol: symbol, Date: day(d)})
	}
	return out
}

// padding returns n filler closes well away from any earnings date
func padding(n int) []models.PricePoint {
	out := make([]models.PricePoint, 0, n)
	start := day("2023-01-02")
	for i := 0; i < n; i++ {
		out = append(out, models.PricePoint{Date: start.AddDate(0, 0, i), Close: decimal.NewFromInt(75)})
	}
	return out
}

func TestEstimate(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)

	t.Run("single move is computed from the surrounding closes", func(t *testing.T) {
		prices := append(padding(10),
			point("2024-01-31", 100),
			point("2024-02-02", 110),
		)

		summary, err := Estimate("AAPL", events("AAPL", "2024-02-01", "2024-08-01"), prices, asOf)
		require.NoError(t, err)
		assert.Equal(t, "AAPL", summary.Symbol)
		assert.Equal(t, 10.0, summary.AverageMovePercent)
		assert.Equal(t, day("2024-08-01"), summary.NextEarningsDate)
		assert.Equal(t, asOf, summary.ComputedAt)
	})

	t.Run("average over three observations", func(t *testing.T) {
		prices := append(padding(10),
			point("2023-04-03", 100), point("2023-04-05", 105),
			point("2023-07-03", 100), point("2023-07-05", 90),
			point("2023-10-02", 100), point("2023-10-04", 115),
		)
		evts := events("MSFT", "2023-04-04", "2023-07-04", "2023-10-03", "2024-07-25")

		summary, err := Estimate("MSFT", evts, prices, asOf)
		require.NoError(t, err)
		assert.Equal(t, 10.0, summary.AverageMovePercent)
	})

	t.Run("weekend announcement uses the prior trading days", func(t *testing.T) {
		// Sunday 2024-03-10: before is Saturday -> Friday 03-08, after is Monday 03-11
		prices := append(padding(10),
			point("2024-03-08", 200),
			point("2024-03-11", 190),
		)

		summary, err := Estimate("NVDA", events("NVDA", "2024-03-10", "2024-09-01"), prices, asOf)
		require.NoError(t, err)
		assert.Equal(t, 5.0, summary.AverageMovePercent)
	})

	t.Run("average is rounded to two places", func(t *testing.T) {
		prices := append(padding(10),
			point("2023-05-01", 3), point("2023-05-03", 4),
		)

		summary, err := Estimate("T", events("T", "2023-05-02", "2024-07-01"), prices, asOf)
		require.NoError(t, err)
		assert.Equal(t, 33.33, summary.AverageMovePercent)
	})

	t.Run("events without both sides priced are ignored", func(t *testing.T) {
		prices := append(padding(10),
			point("2023-05-01", 100), point("2023-05-03", 120),
			point("2023-08-03", 100),
		)
		evts := events("AMD", "2023-05-02", "2023-08-02", "2022-01-01", "2024-07-30")

		summary, err := Estimate("AMD", evts, prices, asOf)
		require.NoError(t, err)
		assert.Equal(t, 20.0, summary.AverageMovePercent)
	})
}

func TestEstimateSkips(t *testing.T) {
	asOf := day("2024-06-01")
	rich := append(padding(300), point("2024-01-31", 100), point("2024-02-02", 110))

	tests := []struct {
		name   string
		events []models.EarningsEvent
		prices []models.PricePoint
		want   error
	}{
		{
			name:   "no earnings events regardless of prices",
			events: nil,
			prices: rich,
			want:   ErrNoEarnings,
		},
		{
			name:   "nine price points is not enough",
			events: events("X", "2024-02-01", "2024-08-01"),
			prices: padding(9),
			want:   ErrInsufficientPrices,
		},
		{
			name:   "no event can be priced",
			events: events("X", "2020-02-01", "2024-08-01"),
			prices: padding(10),
			want:   ErrNoValidMoves,
		},
		{
			name:   "zero before-price yields no observation",
			events: events("X", "2024-02-01", "2024-08-01"),
			prices: append(padding(10), point("2024-01-31", 0), point("2024-02-02", 10)),
			want:   ErrNoValidMoves,
		},
		{
			name:   "no future event",
			events: events("X", "2024-02-01"),
			prices: rich,
			want:   ErrNoUpcomingEarnings,
		},
		{
			name:   "event on the reference day is not upcoming",
			events: events("X", "2024-02-01", "2024-06-01"),
			prices: rich,
			want:   ErrNoUpcomingEarnings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := Estimate("X", tt.events, tt.prices, asOf)
			assert.Nil(t, summary)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsSkip(err))
		})
	}
}

func TestNextEarningsDate(t *testing.T) {
	asOf := day("2024-06-01")

	t.Run("earliest future date, not the last listed", func(t *testing.T) {
		next, ok := NextEarningsDate(events("X", "2023-06-01", "2024-12-01", "2025-01-01"), asOf)
		require.True(t, ok)
		assert.Equal(t, day("2024-12-01"), next)
	})

	t.Run("unordered input is sorted before selection", func(t *testing.T) {
		next, ok := NextEarningsDate(events("X", "2025-01-01", "2023-06-01", "2024-12-01"), asOf)
		require.True(t, ok)
		assert.Equal(t, day("2024-12-01"), next)
	})

	t.Run("none in the future", func(t *testing.T) {
		_, ok := NextEarningsDate(events("X", "2023-06-01", "2024-05-31"), asOf)
		assert.False(t, ok)
	})
}

func TestAverageMoveRoundsHalfAwayFromZero(t *testing.T) {
	moves := []decimal.Decimal{decimal.RequireFromString("1.005"), decimal.RequireFromString("1.005")}
	assert.Equal(t, "1.01", AverageMove(moves).StringFixed(2))
}

func TestEstimateIsDeterministic(t *testing.T) {
	prices := append(padding(10), point("2024-01-31", 100), point("2024-02-02", 110))
	evts := events("AAPL", "2024-02-01", "2024-08-01")

	first, err := Estimate("AAPL", evts, prices, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	second, err := Estimate("AAPL", evts, prices, time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.NotEqual(t, first.ComputedAt, second.ComputedAt)
	second.ComputedAt = first.ComputedAt
	assert.Equal(t, first, second)
}

func TestIsSkip(t *testing.T) {
	assert.True(t, IsSkip(ErrNoValidMoves))
	assert.False(t, IsSkip(nil))
	assert.False(t, IsSkip(assert.AnError))
}
