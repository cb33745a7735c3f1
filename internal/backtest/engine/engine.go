package engine

import (
	"context"

	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-crossover/internal/strategy"
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalStrategies int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnStrategyStartCallback is called when a strategy iteration begins.
type OnStrategyStartCallback func(strategyIndex int, strategyName string, totalStrategies int) error

// OnStrategyEndCallback is called when a strategy iteration ends.
type OnStrategyEndCallback func(strategyIndex int, strategyName string)

// OnRunStartCallback is called once the data file is loaded, before the first bar is replayed.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, totalDataPoints int) error

// OnRunEndCallback is called after the results of a run have been written.
type OnRunEndCallback func(stats types.TradeStats, resultFolderPath string)

// OnProcessDataCallback is called for each data point processed.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnStrategyStart *OnStrategyStartCallback
	OnStrategyEnd   *OnStrategyEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
}

type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetTimeframe overrides the configured timeframe. The tag is checked against the whitelist.
	SetTimeframe(timeframe string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// Each run is written to <folder>/<strategy>/<symbol>_<timeframe>/<run id>.
	SetResultsFolder(folder string) error
	// SetDataSource replaces the DuckDB CSV reader used to load market data.
	SetDataSource(dataSource datasource.DataSource) error
	// LoadStrategy loads a strategy. Could be called multiple times; strategies run one after another.
	LoadStrategy(strategy strategy.Strategy) error
	// Run runs the engine and executes the trading strategy.
	// The context can be used to cancel the backtest operation between bars.
	// Use LifecycleCallbacks to receive notifications at different phases of the backtest.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
