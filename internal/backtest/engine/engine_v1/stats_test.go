package engine

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/mocks"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
	"github.com/stretchr/testify/suite"
)

type StatsTestSuite struct {
	suite.Suite
	start time.Time
}

func TestStatsSuite(t *testing.T) {
	suite.Run(t, new(StatsTestSuite))
}

func (suite *StatsTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *StatsTestSuite) trade(pnl float64, returnPct float64, hours int) types.Trade {
	return types.Trade{
		Symbol:       "MICROBTCUSDT",
		PositionType: types.PositionTypeLong,
		Quantity:     1,
		EntryTime:    suite.start,
		ExitTime:     suite.start.Add(time.Duration(hours) * time.Hour),
		EntryPrice:   100,
		ExitPrice:    100 + pnl,
		PnL:          pnl,
		ReturnPct:    returnPct,
		StrategyName: "SmaCross(10,20)",
	}
}

func (suite *StatsTestSuite) point(hour int, close float64, equity float64, inPosition bool) types.EquityPoint {
	return types.EquityPoint{
		Time:       suite.start.Add(time.Duration(hour) * time.Hour),
		Close:      close,
		Cash:       equity,
		Equity:     equity,
		InPosition: inPosition,
	}
}

func (suite *StatsTestSuite) TestTradeResult() {
	result := calculateTradeResult([]types.Trade{
		suite.trade(30, 3, 1),
		suite.trade(-10, -1, 2),
		suite.trade(20, 2, 3),
		suite.trade(0, 0, 4),
	})

	suite.Equal(4, result.NumberOfTrades)
	suite.Equal(2, result.NumberOfWinningTrades)
	suite.Equal(1, result.NumberOfLosingTrades)
	suite.Equal(50.0, result.WinRate)
	suite.Equal(3.0, result.BestTradePct)
	suite.Equal(-1.0, result.WorstTradePct)
	suite.Equal(1.0, result.AvgTradePct)
	suite.Equal(5.0, result.ProfitFactor)
}

func (suite *StatsTestSuite) TestTradeResultWithoutTrades() {
	suite.Equal(types.TradeResult{}, calculateTradeResult(nil))
}

func (suite *StatsTestSuite) TestProfitFactorWithoutLosses() {
	result := calculateTradeResult([]types.Trade{suite.trade(10, 1, 1)})

	suite.Equal(100.0, result.WinRate)
	suite.Equal(0.0, result.ProfitFactor)
}

func (suite *StatsTestSuite) TestOrderResult() {
	result := calculateOrderResult([]types.Order{
		{Status: types.OrderStatusFilled},
		{Status: types.OrderStatusRejected},
		{Status: types.OrderStatusFilled},
		{Status: types.OrderStatusRejected},
		{Status: types.OrderStatusFilled},
	})

	suite.Equal(types.OrderResult{NumberOfOrders: 5, NumberOfFilledOrders: 3, NumberOfRejectedOrders: 2}, result)
	suite.Equal(types.OrderResult{}, calculateOrderResult(nil))
}

func (suite *StatsTestSuite) TestEquityResult() {
	curve := []types.EquityPoint{
		suite.point(0, 100, 1000, false),
		suite.point(1, 110, 1200, true),
		suite.point(2, 90, 900, true),
		suite.point(3, 120, 1100, false),
	}

	result := calculateEquityResult(1000, curve)

	suite.Equal(1000.0, result.Initial)
	suite.Equal(1100.0, result.Final)
	suite.Equal(1200.0, result.Peak)
	suite.InDelta(10.0, result.ReturnPct, 1e-9)
	suite.InDelta(20.0, result.BuyAndHoldReturnPct, 1e-9)
	suite.InDelta(-25.0, result.MaxDrawdownPct, 1e-9)
	suite.Equal(50.0, result.ExposureTimePct)
}

func (suite *StatsTestSuite) TestEquityResultDrawdownFromInitial() {
	curve := []types.EquityPoint{
		suite.point(0, 100, 800, true),
		suite.point(1, 100, 900, true),
	}

	result := calculateEquityResult(1000, curve)

	suite.InDelta(-20.0, result.MaxDrawdownPct, 1e-9)
	suite.Equal(1000.0, result.Peak)
}

func (suite *StatsTestSuite) TestEquityResultEmptyCurve() {
	result := calculateEquityResult(1000, nil)

	suite.Equal(1000.0, result.Final)
	suite.Equal(0.0, result.ReturnPct)
	suite.Equal(0.0, result.MaxDrawdownPct)
}

func (suite *StatsTestSuite) TestHoldingTime() {
	result := calculateHoldingTime([]types.Trade{
		suite.trade(1, 1, 1),
		suite.trade(1, 1, 5),
		suite.trade(1, 1, 3),
	})

	suite.Equal(3600, result.Min)
	suite.Equal(5*3600, result.Max)
	suite.Equal(3*3600, result.Avg)
	suite.Equal(types.TradeHoldingTime{}, calculateHoldingTime(nil))
}

func (suite *StatsTestSuite) TestTradePnl() {
	result := calculateTradePnl([]types.Trade{
		suite.trade(30, 3, 1),
		suite.trade(-10, -1, 1),
	}, 5)

	suite.Equal(20.0, result.RealizedPnL)
	suite.Equal(5.0, result.UnrealizedPnL)
	suite.Equal(25.0, result.TotalPnL)
	suite.Equal(-10.0, result.MaximumLoss)
	suite.Equal(30.0, result.MaximumProfit)
}

func (suite *StatsTestSuite) TestCalculateStats() {
	config := mocks.DefaultConfig()
	bars := mocks.GenerateFromCloses(config, 100, 110, 90, 120)

	series, err := types.NewTimeSeries("MICROBTCUSDT", marketdata.TimeframeOneHour, bars)
	suite.Require().NoError(err)

	curve := []types.EquityPoint{
		suite.point(0, 100, 1000, false),
		suite.point(1, 110, 1200, true),
		suite.point(2, 90, 900, true),
		suite.point(3, 120, 1100, false),
	}

	stats := calculateStats(statsInput{
		runID:          "run",
		timestamp:      suite.start,
		series:         series,
		initialCapital: 1000,
		trades:         []types.Trade{suite.trade(100, 10, 2)},
		orders: []types.Order{
			{Status: types.OrderStatusFilled},
			{Status: types.OrderStatusRejected},
			{Status: types.OrderStatusFilled},
		},
		equity:   curve,
		account:  types.AccountInfo{Balance: 1100, Equity: 1100, TotalFees: 2},
		signals:  3,
		strategy: types.StrategyInfo{Name: "SmaCross(10,20)", ShortPeriod: 10, LongPeriod: 20},
		dataPath: "Data/microbtcusdt_1h.csv",
		files:    ResultFiles{Orders: "orders.csv", Trades: "trades.csv", Equity: "equity.csv"},
	})

	suite.Equal("run", stats.ID)
	suite.Equal("MICROBTCUSDT", stats.Symbol)
	suite.Equal("1h", stats.Timeframe)
	suite.Equal(4, stats.Bars)
	suite.Equal(3, stats.Signals)
	suite.Equal(suite.start, stats.Start)
	suite.Equal(suite.start.Add(3*time.Hour), stats.End)
	suite.Equal(3*time.Hour, stats.Duration)
	suite.Equal(2.0, stats.TotalFees)
	suite.Equal(1, stats.TradeResult.NumberOfTrades)
	suite.Equal(3, stats.OrderResult.NumberOfOrders)
	suite.Equal(1, stats.OrderResult.NumberOfRejectedOrders)
	suite.Equal(1100.0, stats.Equity.Final)
	suite.Equal("SmaCross(10,20)", stats.Strategy.Name)
	suite.Equal("Data/microbtcusdt_1h.csv", stats.DataPath)
	suite.Equal("equity.csv", stats.EquityFilePath)
}
