package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/indicator"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/trading"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"go.uber.org/zap"
)

// SMACross emits enter_long when the short SMA of the close crosses above the long SMA
// and enter_short when it crosses below.
type SMACross struct {
	config       SMACrossConfig
	logger       *logger.Logger
	short        indicator.Indicator
	long         indicator.Indicator
	previous     Relation
	lastTime     optional.Option[time.Time]
	observations int
	symbol       string
	engine       trading.ExecutionEngine
}

// NewSMACross creates the strategy. Call Initialize before feeding bars.
func NewSMACross(config SMACrossConfig, log *logger.Logger) (*SMACross, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	short, err := indicator.NewMA(config.ShortPeriod)
	if err != nil {
		return nil, err
	}

	long, err := indicator.NewMA(config.LongPeriod)
	if err != nil {
		return nil, err
	}

	return &SMACross{
		config:       config,
		logger:       log,
		short:        short,
		long:         long,
		previous:     RelationUndefined,
		lastTime:     optional.None[time.Time](),
		observations: 0,
		symbol:       "",
		engine:       nil,
	}, nil
}

// Name implements Strategy.
func (s *SMACross) Name() string {
	return fmt.Sprintf("SmaCross(%d,%d)", s.config.ShortPeriod, s.config.LongPeriod)
}

// Config returns the periods in use.
func (s *SMACross) Config() SMACrossConfig {
	return s.config
}

// Relation returns the ordering computed on the last processed bar.
func (s *SMACross) Relation() Relation {
	return s.previous
}

// GetConfigSchema implements Strategy.
func (s *SMACross) GetConfigSchema() (string, error) {
	return ToJSONSchema(SMACrossConfig{})
}

// Initialize implements Strategy.
// Every close in the series is checked up front so malformed input stops the run before any signal.
func (s *SMACross) Initialize(series types.TimeSeries, engine trading.ExecutionEngine) error {
	if engine == nil {
		return errors.New(errors.ErrCodeStrategyConfigError, "execution engine is required")
	}

	for i, bar := range series.All() {
		if err := checkPrice(bar); err != nil {
			return errors.Wrapf(errors.ErrCodeDataFormat, err, "bar %d", i)
		}
	}

	s.short.Reset()
	s.long.Reset()
	s.previous = RelationUndefined
	s.lastTime = optional.None[time.Time]()
	s.observations = 0
	s.symbol = series.Symbol()
	s.engine = engine

	s.logger.Debug("Strategy initialized",
		zap.String("strategy", s.Name()),
		zap.String("symbol", s.symbol),
		zap.Int("bars", series.Len()),
	)

	return nil
}

// ProcessData implements Strategy.
func (s *SMACross) ProcessData(bar types.MarketData) (types.Signal, error) {
	if s.engine == nil {
		return types.Signal{}, errors.New(errors.ErrCodeStrategyNotLoaded, "strategy is not initialized")
	}

	if err := checkPrice(bar); err != nil {
		return types.Signal{}, err
	}

	if s.lastTime.IsSome() && !bar.Time.After(s.lastTime.Unwrap()) {
		return types.Signal{}, errors.Newf(errors.ErrCodeDataFormat,
			"bar at %s does not follow %s", bar.Time.Format(time.RFC3339), s.lastTime.Unwrap().Format(time.RFC3339))
	}

	s.lastTime = optional.Some(bar.Time)
	s.observations++

	shortValue := s.short.Update(bar.Close)
	longValue := s.long.Update(bar.Close)

	current := Compare(shortValue, longValue)
	signalType := DetectCrossover(s.previous, current)
	previous := s.previous
	s.previous = current

	signal := types.Signal{
		Time:    bar.Time,
		Type:    signalType,
		Name:    s.Name(),
		Reason:  s.reason(previous, current, signalType),
		Symbol:  s.symbolFor(bar),
		ShortMA: shortValue.TakeOr(0),
		LongMA:  longValue.TakeOr(0),
	}

	if !signal.IsActionable() {
		return signal, nil
	}

	s.logger.Debug("Crossover",
		zap.String("signal", string(signal.Type)),
		zap.Time("time", bar.Time),
		zap.Float64("close", bar.Close),
		zap.Float64("short_ma", signal.ShortMA),
		zap.Float64("long_ma", signal.LongMA),
	)

	if err := s.engine.OnSignal(signal, bar); err != nil {
		return signal, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "failed to execute %s signal", signal.Type)
	}

	return signal, nil
}

func (s *SMACross) symbolFor(bar types.MarketData) string {
	if bar.Symbol != "" {
		return bar.Symbol
	}

	return s.symbol
}

func (s *SMACross) reason(previous Relation, current Relation, signalType types.SignalType) string {
	// A crossover compares two bars, so one more observation than the long period is needed.
	if !previous.IsDefined() || !current.IsDefined() {
		return errors.NewInsufficientDataError(s.long.Period()+1, s.observations, s.symbol).Error()
	}

	switch signalType {
	case types.SignalTypeEnterLong:
		return fmt.Sprintf("%s crossed above %s", s.short.Name(), s.long.Name())
	case types.SignalTypeEnterShort:
		return fmt.Sprintf("%s crossed below %s", s.short.Name(), s.long.Name())
	default:
		return fmt.Sprintf("%s -> %s", previous, current)
	}
}

func checkPrice(bar types.MarketData) error {
	if math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) || bar.Close <= 0 {
		return errors.Newf(errors.ErrCodeDataFormat,
			"close price at %s must be a positive finite number, got %v", bar.Time.Format(time.RFC3339), bar.Close)
	}

	return nil
}
