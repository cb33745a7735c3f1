package types

import (
	"slices"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
)

// MarketData is one OHLCV bar.
type MarketData struct {
	Id     string    `csv:"id"`
	Symbol string    `csv:"symbol"`
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
}

// TimeSeries is an immutable, strictly time-ordered sequence of bars loaded from one file.
type TimeSeries struct {
	symbol    string
	timeframe marketdata.Timeframe
	bars      []MarketData
}

// NewTimeSeries copies bars into a TimeSeries after checking that timestamps are strictly
// increasing. A duplicate or out-of-order timestamp is an ErrCodeDataFormat error.
func NewTimeSeries(symbol string, timeframe marketdata.Timeframe, bars []MarketData) (TimeSeries, error) {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return TimeSeries{}, errors.Newf(errors.ErrCodeDataFormat,
				"timestamps must be strictly increasing: row %d (%s) does not follow row %d (%s)",
				i+1, bars[i].Time.Format(time.RFC3339), i, bars[i-1].Time.Format(time.RFC3339))
		}
	}

	return TimeSeries{
		symbol:    symbol,
		timeframe: timeframe,
		bars:      slices.Clone(bars),
	}, nil
}

func (s TimeSeries) Symbol() string {
	return s.symbol
}

func (s TimeSeries) Timeframe() marketdata.Timeframe {
	return s.timeframe
}

// Len returns the number of bars.
func (s TimeSeries) Len() int {
	return len(s.bars)
}

// Bar returns the i-th bar.
func (s TimeSeries) Bar(i int) MarketData {
	return s.bars[i]
}

// All iterates over the bars in time order.
func (s TimeSeries) All() func(yield func(int, MarketData) bool) {
	return func(yield func(int, MarketData) bool) {
		for i, bar := range s.bars {
			if !yield(i, bar) {
				return
			}
		}
	}
}

// Closes returns the closing prices in time order.
func (s TimeSeries) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, bar := range s.bars {
		closes[i] = bar.Close
	}

	return closes
}

// First returns the first bar, if any.
func (s TimeSeries) First() optional.Option[MarketData] {
	if len(s.bars) == 0 {
		return optional.None[MarketData]()
	}

	return optional.Some(s.bars[0])
}

// Last returns the last bar, if any.
func (s TimeSeries) Last() optional.Option[MarketData] {
	if len(s.bars) == 0 {
		return optional.None[MarketData]()
	}

	return optional.Some(s.bars[len(s.bars)-1])
}
