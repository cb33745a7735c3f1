package indicator

import "github.com/moznion/go-optional"

// Indicator is a streaming indicator fed one closing price per bar.
type Indicator interface {
	// Name returns the name of the indicator, e.g. "sma(10)"
	Name() string
	// Update feeds the next value and returns the indicator value after it,
	// None while the indicator is still warming up
	Update(value float64) optional.Option[float64]
	// Value returns the current value without feeding anything
	Value() optional.Option[float64]
	// Period returns how many values the indicator needs before it is defined
	Period() int
	// Count returns how many values have been fed since the last Reset
	Count() int
	// Reset clears all state
	Reset()
}
