package indicator

import (
	"fmt"

	"github.com/markcheno/go-talib"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// MA is a simple moving average over the most recent period values.
// Values are kept in a ring buffer; the mean is summed oldest to newest on every update so two
// averages over the same window always compare equal.
type MA struct {
	period int
	window []float64
	next   int
	count  int
}

// NewMA creates a new MA indicator with the given period.
func NewMA(period int) (*MA, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return &MA{
		period: period,
		window: make([]float64, period),
		next:   0,
		count:  0,
	}, nil
}

// Name returns the name of the indicator.
func (m *MA) Name() string {
	return fmt.Sprintf("sma(%d)", m.period)
}

// Period returns the configured period.
func (m *MA) Period() int {
	return m.period
}

// Update implements Indicator.
func (m *MA) Update(value float64) optional.Option[float64] {
	m.window[m.next] = value
	m.next = (m.next + 1) % m.period
	m.count++

	return m.Value()
}

// Value implements Indicator.
func (m *MA) Value() optional.Option[float64] {
	if m.count < m.period {
		return optional.None[float64]()
	}

	// once full, m.next points at the oldest value
	sum := 0.0
	for i := 0; i < m.period; i++ {
		sum += m.window[(m.next+i)%m.period]
	}

	return optional.Some(sum / float64(m.period))
}

// Count implements Indicator.
func (m *MA) Count() int {
	return m.count
}

// Reset implements Indicator.
func (m *MA) Reset() {
	clear(m.window)
	m.next = 0
	m.count = 0
}

// SMASeries computes the simple moving average of values for every index at once.
// Entries before index period-1 are None.
func SMASeries(values []float64, period int) ([]optional.Option[float64], error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	series := make([]optional.Option[float64], len(values))
	if len(values) < period {
		for i := range series {
			series[i] = optional.None[float64]()
		}

		return series, nil
	}

	var raw []float64
	if period == 1 {
		// the average over a single value is the value itself
		raw = values
	} else {
		raw = talib.Sma(values, period)
	}

	for i := range series {
		if i < period-1 {
			series[i] = optional.None[float64]()

			continue
		}

		series[i] = optional.Some(raw[i])
	}

	return series, nil
}
