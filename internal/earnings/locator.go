package earnings

import (
	"time"

	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
	"github.com/shopspring/decimal"
)

// LookbackAttempts is the number of calendar days checked when locating a
// close: the target date itself plus the four days before it
const LookbackAttempts = 5

// PriceIndex maps calendar dates to closing prices for one symbol
type PriceIndex struct {
	closes map[time.Time]decimal.Decimal
}

// NewPriceIndex builds an index over a price series. Dates are normalized;
// if a date repeats, the later point wins.
func NewPriceIndex(prices []models.PricePoint) *PriceIndex {
	closes := make(map[time.Time]decimal.Decimal, len(prices))
	for _, p := range prices {
		closes[models.NormalizeDate(p.Date)] = p.Close
	}
	return &PriceIndex{closes: closes}
}

// Len returns the number of distinct trading days in the index
func (idx *PriceIndex) Len() int {
	return len(idx.closes)
}

// Locate returns the close on target, or on the nearest prior trading day
// within LookbackAttempts days. The boolean is false when nothing matched.
func (idx *PriceIndex) Locate(target time.Time) (decimal.Decimal, bool) {
	day := models.NormalizeDate(target)
	for i := 0; i < LookbackAttempts; i++ {
		if price, ok := idx.closes[day]; ok {
			return price, true
		}
		day = day.AddDate(0, 0, -1)
	}
	return decimal.Zero, false
}

// LocatePrice is a convenience wrapper for one-off lookups
func LocatePrice(prices []models.PricePoint, target time.Time) (decimal.Decimal, bool) {
	return NewPriceIndex(prices).Locate(target)
}
