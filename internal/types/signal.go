package types

import "time"

type SignalType string

const (
	// SignalTypeEnterLong closes any open short position and opens a long one
	SignalTypeEnterLong SignalType = "enter_long"
	// SignalTypeEnterShort closes any open long position and opens a short one
	SignalTypeEnterShort SignalType = "enter_short"
	// SignalTypeNone means no crossover happened on this bar
	SignalTypeNone SignalType = "none"
)

type Signal struct {
	// Time is the time of the bar that produced the signal
	Time time.Time
	// Type is the type of the signal
	Type SignalType
	// Name is the name of the strategy that generated the signal
	Name string
	// Reason is a human readable explanation
	Reason string
	// Symbol is the symbol of the signal
	Symbol string
	// ShortMA is the short moving average at Time, zero during warm-up
	ShortMA float64
	// LongMA is the long moving average at Time, zero during warm-up
	LongMA float64
}

// IsActionable reports whether the signal asks the execution engine to trade.
func (s Signal) IsActionable() bool {
	return s.Type == SignalTypeEnterLong || s.Type == SignalTypeEnterShort
}
