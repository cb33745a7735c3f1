package commission_fee

import (
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// DefaultRate is the commission charged per side as a fraction of the traded notional (0.1%).
const DefaultRate = 0.001

type CommissionFee interface {
	// Calculate returns the fee for filling quantity at price, in quote currency.
	Calculate(quantity float64, price float64) float64
	// Rate returns the proportional rate used for sizing; zero for flat schedules.
	Rate() float64
}

type Broker string

const (
	BrokerProportional Broker = "proportional"
	BrokerZero         Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerProportional,
	BrokerZero,
}

// GetCommissionFeeHandler returns the fee schedule for broker. rate is only used by the proportional broker.
func GetCommissionFeeHandler(broker Broker, rate float64) (CommissionFee, error) {
	switch broker {
	case BrokerProportional:
		return NewProportionalCommissionFee(rate)
	case BrokerZero:
		return NewZeroCommissionFee(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown broker %q, choose from %v", broker, AllBrokers)
	}
}
