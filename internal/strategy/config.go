package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

const (
	DefaultShortPeriod = 10
	DefaultLongPeriod  = 20
)

// SMACrossConfig holds the two moving average periods.
type SMACrossConfig struct {
	ShortPeriod int `yaml:"short_period" json:"short_period" jsonschema:"title=Short Period,description=Number of bars in the fast moving average,minimum=1,default=10" validate:"gt=0"`
	LongPeriod  int `yaml:"long_period" json:"long_period" jsonschema:"title=Long Period,description=Number of bars in the slow moving average,minimum=2,default=20" validate:"gt=0,gtfield=ShortPeriod"`
}

// DefaultSMACrossConfig returns the 10/20 configuration.
func DefaultSMACrossConfig() SMACrossConfig {
	return SMACrossConfig{
		ShortPeriod: DefaultShortPeriod,
		LongPeriod:  DefaultLongPeriod,
	}
}

// Validate checks that both periods are positive and the short one is shorter.
func (c SMACrossConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyConfigError, err,
			"invalid sma crossover periods short=%d long=%d", c.ShortPeriod, c.LongPeriod)
	}

	return nil
}
