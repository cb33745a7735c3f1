package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine"
	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-crossover/internal/indicator"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/strategy"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	strategies    []strategy.Strategy
	resultsFolder string
	log           *logger.Logger
	state         *BacktestState
	datasource    optional.Option[datasource.DataSource]
	commission    commission_fee.CommissionFee
}

// NewBacktestEngineV1 creates an engine. A nil logger is replaced by an info level logger on Initialize.
func NewBacktestEngineV1(log *logger.Logger) engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		strategies:    nil,
		resultsFolder: "",
		log:           log,
		state:         nil,
		datasource:    optional.None[datasource.DataSource](),
		commission:    nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	b.config = EmptyConfig()

	err := yaml.Unmarshal([]byte(config), &b.config)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest config", err)
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	if b.log == nil {
		b.log, err = logger.NewLogger()
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", err)
		}
	}

	b.commission, err = commission_fee.GetCommissionFeeHandler(b.config.Broker, b.config.Commission)
	if err != nil {
		return err
	}

	if b.state == nil {
		b.state, err = NewBacktestState(b.log)
		if err != nil {
			return err
		}
	}

	if err := b.state.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize backtest state", err)
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("timeframe", b.config.Timeframe.String()),
		zap.String("broker", string(b.config.Broker)),
		zap.Float64("initial_capital", b.config.InitialCapital),
	)

	return nil
}

// SetTimeframe implements engine.Engine.
func (b *BacktestEngineV1) SetTimeframe(timeframe string) error {
	tf, err := marketdata.ParseTimeframe(timeframe)
	if err != nil {
		return err
	}

	b.config.Timeframe = tf

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	return nil
}

// SetDataSource implements engine.Engine.
// The engine takes ownership of the data source and closes it after loading.
func (b *BacktestEngineV1) SetDataSource(dataSource datasource.DataSource) error {
	if dataSource == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "data source is nil")
	}

	b.datasource = optional.Some(dataSource)

	return nil
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(strategy strategy.Strategy) error {
	if strategy == nil {
		return errors.New(errors.ErrCodeStrategyNotLoaded, "strategy is nil")
	}

	b.strategies = append(b.strategies, strategy)

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (runErr error) {
	defer func() {
		if callbacks.OnBacktestEnd != nil {
			(*callbacks.OnBacktestEnd)(runErr)
		}
	}()

	if err := b.preRunCheck(); err != nil {
		return err
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(b.strategies)); err != nil {
			return err
		}
	}

	loader := b.newLoader()

	series, err := loader.Load(b.config.Timeframe.String())
	if err != nil {
		return err
	}

	dataPath := loader.Path(b.config.Timeframe)

	for i, strategy := range b.strategies {
		if callbacks.OnStrategyStart != nil {
			if err := (*callbacks.OnStrategyStart)(i, strategy.Name(), len(b.strategies)); err != nil {
				return err
			}
		}

		err := b.runStrategy(ctx, strategy, series, dataPath, callbacks)

		if callbacks.OnStrategyEnd != nil {
			(*callbacks.OnStrategyEnd)(i, strategy.Name())
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (b *BacktestEngineV1) newLoader() *datasource.Loader {
	loader := datasource.NewLoader(b.config.DataDir, b.config.BaseName, b.config.Symbol, b.log).
		WithWindow(b.config.StartTime, b.config.EndTime)

	if b.datasource.IsSome() {
		source := b.datasource.Unwrap()
		loader.WithFactory(func() (datasource.DataSource, error) {
			return source, nil
		})
	}

	return loader
}

// runStrategy replays the whole series through one strategy and writes its results.
func (b *BacktestEngineV1) runStrategy(
	ctx context.Context,
	strategy strategy.Strategy,
	series types.TimeSeries,
	dataPath string,
	callbacks engine.LifecycleCallbacks,
) error {
	defer func() {
		if err := b.cleanUpRun(); err != nil {
			b.log.Error("Failed to clean up run", zap.Error(err))
		}
	}()

	runID := uuid.New().String()
	total := series.Len()
	info := b.strategyInfo(strategy)

	tradingSystem := NewBacktestTrading(
		b.state,
		b.log,
		b.config.InitialCapital,
		b.commission,
		b.config.PositionSize,
		b.config.DecimalPrecision,
	)

	if err := strategy.Initialize(series, tradingSystem); err != nil {
		return fmt.Errorf("failed to initialize strategy: %w", err)
	}

	shortMA, err := indicator.SMASeries(series.Closes(), info.ShortPeriod)
	if err != nil {
		return fmt.Errorf("failed to compute short moving average: %w", err)
	}

	longMA, err := indicator.SMASeries(series.Closes(), info.LongPeriod)
	if err != nil {
		return fmt.Errorf("failed to compute long moving average: %w", err)
	}

	b.log.Info("Running strategy",
		zap.String("run_id", runID),
		zap.String("strategy", strategy.Name()),
		zap.String("data", dataPath),
		zap.Int("bars", total),
	)

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, total); err != nil {
			return err
		}
	}

	curve := make([]types.EquityPoint, 0, total)

	for i, bar := range series.All() {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeBacktestRunCancelled, "backtest cancelled", err)
		}

		tradingSystem.UpdateCurrentMarketData(bar)

		if _, err := strategy.ProcessData(bar); err != nil {
			return fmt.Errorf("failed to process data: %w", err)
		}

		if b.config.CloseOnEnd && i == total-1 {
			if err := tradingSystem.CloseAll("close on end"); err != nil {
				return fmt.Errorf("failed to close position: %w", err)
			}
		}

		account := tradingSystem.GetAccountInfo()

		curve = append(curve, types.EquityPoint{
			Time:       bar.Time,
			Close:      bar.Close,
			Cash:       account.Balance,
			Equity:     account.Equity,
			ShortMA:    shortMA[i],
			LongMA:     longMA[i],
			InPosition: tradingSystem.GetPosition().IsSome(),
		})

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i+1, total); err != nil {
				return err
			}
		}
	}

	if err := b.state.RecordEquityCurve(curve); err != nil {
		return fmt.Errorf("failed to record equity: %w", err)
	}

	resultFolderPath := getResultFolder(b.resultsFolder, strategy.Name(), series.Symbol(), series.Timeframe(), runID)

	stats, err := b.writeResults(runID, series, tradingSystem, info, dataPath, resultFolderPath)
	if err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	b.log.Info("Backtest finished",
		zap.String("run_id", runID),
		zap.String("result", resultFolderPath),
		zap.Int("trades", stats.TradeResult.NumberOfTrades),
		zap.Int("rejected_orders", stats.OrderResult.NumberOfRejectedOrders),
		zap.Float64("return_pct", stats.Equity.ReturnPct),
	)

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(stats, resultFolderPath)
	}

	return nil
}

func (b *BacktestEngineV1) strategyInfo(s strategy.Strategy) types.StrategyInfo {
	config := b.config.Strategy
	if crossover, ok := s.(*strategy.SMACross); ok {
		config = crossover.Config()
	}

	return types.StrategyInfo{
		Name:        s.Name(),
		ShortPeriod: config.ShortPeriod,
		LongPeriod:  config.LongPeriod,
	}
}

func (b *BacktestEngineV1) writeResults(
	runID string,
	series types.TimeSeries,
	tradingSystem *BacktestTrading,
	info types.StrategyInfo,
	dataPath string,
	resultFolderPath string,
) (types.TradeStats, error) {
	if b.state == nil {
		return types.TradeStats{}, errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	files, err := b.state.Write(resultFolderPath)
	if err != nil {
		return types.TradeStats{}, err
	}

	trades, err := b.state.GetTrades()
	if err != nil {
		return types.TradeStats{}, fmt.Errorf("failed to get trades: %w", err)
	}

	orders, err := b.state.GetOrders()
	if err != nil {
		return types.TradeStats{}, fmt.Errorf("failed to get orders: %w", err)
	}

	equity, err := b.state.GetEquityCurve()
	if err != nil {
		return types.TradeStats{}, fmt.Errorf("failed to get equity curve: %w", err)
	}

	stats := calculateStats(statsInput{
		runID:          runID,
		timestamp:      time.Now().UTC(),
		series:         series,
		initialCapital: b.config.InitialCapital,
		trades:         trades,
		orders:         orders,
		equity:         equity,
		account:        tradingSystem.GetAccountInfo(),
		signals:        tradingSystem.SignalCount(),
		strategy:       info,
		dataPath:       dataPath,
		files:          files,
	})

	if err := types.WriteTradeStats(filepath.Join(resultFolderPath, statsFileName), stats); err != nil {
		return types.TradeStats{}, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to write stats", err)
	}

	return stats, nil
}

func (b *BacktestEngineV1) cleanUpRun() error {
	if b.state == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	if err := b.state.Cleanup(); err != nil {
		return fmt.Errorf("failed to cleanup state: %w", err)
	}

	return nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.state == nil || b.commission == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "engine is not initialized")
	}

	if len(b.strategies) == 0 {
		b.log.Error("No strategies loaded")

		return errors.New(errors.ErrCodeBacktestNoStrategies, "no strategies loaded")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	return nil
}
