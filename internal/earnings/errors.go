package earnings

import "errors"

// Skip reasons. These are expected, data-availability outcomes and are
// reported through IsSkip rather than as failures of the pipeline itself.
var (
	ErrNoEarnings         = errors.New("no earnings history")
	ErrInsufficientPrices = errors.New("insufficient price history")
	ErrNoValidMoves       = errors.New("no valid earnings moves")
	ErrNoUpcomingEarnings = errors.New("no upcoming earnings date")
)

// IsSkip reports whether err is (or wraps) one of the skip reasons
func IsSkip(err error) bool {
	return errors.Is(err, ErrNoEarnings) ||
		errors.Is(err, ErrInsufficientPrices) ||
		errors.Is(err, ErrNoValidMoves) ||
		errors.Is(err, ErrNoUpcomingEarnings)
}
