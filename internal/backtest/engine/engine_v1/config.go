package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-crossover/internal/strategy"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
)

type BacktestEngineV1Config struct {
	InitialCapital   float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in quote currency,minimum=0,default=10000" validate:"gt=0"`
	Broker           commission_fee.Broker      `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations,default=proportional" validate:"oneof=proportional zero_commission"`
	Commission       float64                    `yaml:"commission" json:"commission" jsonschema:"title=Commission,description=Commission per fill as a fraction of notional,minimum=0,maximum=1,default=0.001" validate:"gte=0,lt=1"`
	Timeframe        marketdata.Timeframe       `yaml:"timeframe" json:"timeframe" jsonschema:"title=Timeframe,description=Bar interval selecting the data file,default=1h" validate:"required"`
	DataDir          string                     `yaml:"data_dir" json:"data_dir" jsonschema:"title=Data Directory,description=Directory holding the market data files,default=Data" validate:"required"`
	BaseName         string                     `yaml:"base_name" json:"base_name" jsonschema:"title=Base Name,description=Data file prefix; files are named <base_name>_<timeframe>.csv,default=microbtcusdt" validate:"required"`
	Symbol           string                     `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Symbol recorded on bars and orders,default=MICROBTCUSDT" validate:"required"`
	PositionSize     float64                    `yaml:"position_size" json:"position_size" jsonschema:"title=Position Size,description=Fraction of equity committed on every entry,minimum=0,maximum=1,default=0.9999" validate:"gt=0,lte=1"`
	DecimalPrecision int                        `yaml:"decimal_precision" json:"decimal_precision" jsonschema:"title=Decimal Precision,description=Number of decimal places order quantities are floored to,minimum=0,maximum=8,default=0" validate:"gte=0,lte=8"`
	CloseOnEnd       bool                       `yaml:"close_on_end" json:"close_on_end" jsonschema:"title=Close On End,description=Close the open position at the last bar,default=false"`
	StartTime        optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime          optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Strategy         strategy.SMACrossConfig    `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=Moving average periods"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Keys missing from the document keep their EmptyConfig defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital   float64                 `yaml:"initial_capital"`
		Broker           commission_fee.Broker   `yaml:"broker"`
		Commission       float64                 `yaml:"commission"`
		Timeframe        marketdata.Timeframe    `yaml:"timeframe"`
		DataDir          string                  `yaml:"data_dir"`
		BaseName         string                  `yaml:"base_name"`
		Symbol           string                  `yaml:"symbol"`
		PositionSize     float64                 `yaml:"position_size"`
		DecimalPrecision int                     `yaml:"decimal_precision"`
		CloseOnEnd       bool                    `yaml:"close_on_end"`
		StartTime        *time.Time              `yaml:"start_time"`
		EndTime          *time.Time              `yaml:"end_time"`
		Strategy         strategy.SMACrossConfig `yaml:"strategy"`
	}

	defaults := EmptyConfig()
	config := Config{
		InitialCapital:   defaults.InitialCapital,
		Broker:           defaults.Broker,
		Commission:       defaults.Commission,
		Timeframe:        defaults.Timeframe,
		DataDir:          defaults.DataDir,
		BaseName:         defaults.BaseName,
		Symbol:           defaults.Symbol,
		PositionSize:     defaults.PositionSize,
		DecimalPrecision: defaults.DecimalPrecision,
		CloseOnEnd:       defaults.CloseOnEnd,
		StartTime:        nil,
		EndTime:          nil,
		Strategy:         defaults.Strategy,
	}

	if err := unmarshal(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Broker = config.Broker
	c.Commission = config.Commission
	c.Timeframe = config.Timeframe
	c.DataDir = config.DataDir
	c.BaseName = config.BaseName
	c.Symbol = config.Symbol
	c.PositionSize = config.PositionSize
	c.DecimalPrecision = config.DecimalPrecision
	c.CloseOnEnd = config.CloseOnEnd
	c.Strategy = config.Strategy
	c.StartTime = optional.None[time.Time]()
	c.EndTime = optional.None[time.Time]()

	if config.StartTime != nil {
		c.StartTime = optional.Some(config.StartTime.UTC())
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(config.EndTime.UTC())
	}

	return nil
}

// MarshalYAML writes unset times as absent keys so the output reads back through UnmarshalYAML.
func (c BacktestEngineV1Config) MarshalYAML() (interface{}, error) {
	type Config struct {
		InitialCapital   float64                 `yaml:"initial_capital"`
		Broker           commission_fee.Broker   `yaml:"broker"`
		Commission       float64                 `yaml:"commission"`
		Timeframe        marketdata.Timeframe    `yaml:"timeframe"`
		DataDir          string                  `yaml:"data_dir"`
		BaseName         string                  `yaml:"base_name"`
		Symbol           string                  `yaml:"symbol"`
		PositionSize     float64                 `yaml:"position_size"`
		DecimalPrecision int                     `yaml:"decimal_precision"`
		CloseOnEnd       bool                    `yaml:"close_on_end"`
		StartTime        *time.Time              `yaml:"start_time,omitempty"`
		EndTime          *time.Time              `yaml:"end_time,omitempty"`
		Strategy         strategy.SMACrossConfig `yaml:"strategy"`
	}

	config := Config{
		InitialCapital:   c.InitialCapital,
		Broker:           c.Broker,
		Commission:       c.Commission,
		Timeframe:        c.Timeframe,
		DataDir:          c.DataDir,
		BaseName:         c.BaseName,
		Symbol:           c.Symbol,
		PositionSize:     c.PositionSize,
		DecimalPrecision: c.DecimalPrecision,
		CloseOnEnd:       c.CloseOnEnd,
		StartTime:        nil,
		EndTime:          nil,
		Strategy:         c.Strategy,
	}

	if c.StartTime.IsSome() {
		start := c.StartTime.Unwrap()
		config.StartTime = &start
	}

	if c.EndTime.IsSome() {
		end := c.EndTime.Unwrap()
		config.EndTime = &end
	}

	return config, nil
}

// Validate checks every field against its rule and the time window for consistency.
func (c BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if err := c.Timeframe.Validate(); err != nil {
		return err
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeBacktestConfigError, "end_time %s is before start_time %s",
			c.EndTime.Unwrap().Format(time.RFC3339), c.StartTime.Unwrap().Format(time.RFC3339))
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			if strings.Contains(t.String(), "marketdata.Timeframe") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: marketdata.AllTimeframes,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// TestConfig returns a config reading <dataDir>/microbtcusdt_<timeframe>.csv with the given broker.
func TestConfig(dataDir string, timeframe marketdata.Timeframe, broker commission_fee.Broker) BacktestEngineV1Config {
	config := EmptyConfig()
	config.DataDir = dataDir
	config.Timeframe = timeframe
	config.Broker = broker

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   10000,
		Broker:           commission_fee.BrokerProportional,
		Commission:       commission_fee.DefaultRate,
		Timeframe:        marketdata.TimeframeOneHour,
		DataDir:          "Data",
		BaseName:         "microbtcusdt",
		Symbol:           "MICROBTCUSDT",
		PositionSize:     0.9999,
		DecimalPrecision: 0,
		CloseOnEnd:       false,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		Strategy:         strategy.DefaultSMACrossConfig(),
	}
}
