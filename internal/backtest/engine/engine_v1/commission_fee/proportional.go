package commission_fee

import (
	"math"

	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// ProportionalCommissionFee charges a fixed fraction of the notional on every fill.
type ProportionalCommissionFee struct {
	rate float64
}

// NewProportionalCommissionFee creates a fee schedule charging rate x quantity x price.
// rate must be in [0, 1).
func NewProportionalCommissionFee(rate float64) (CommissionFee, error) {
	if math.IsNaN(rate) || rate < 0 || rate >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "commission rate must be in [0, 1), got %v", rate)
	}

	return &ProportionalCommissionFee{rate: rate}, nil
}

func (c *ProportionalCommissionFee) Calculate(quantity float64, price float64) float64 {
	return math.Abs(quantity*price) * c.rate
}

func (c *ProportionalCommissionFee) Rate() float64 {
	return c.rate
}
