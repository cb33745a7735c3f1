package types

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type StatisticsTestSuite struct {
	suite.Suite
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) TestWriteAndReadTradeStats() {
	path := filepath.Join(suite.T().TempDir(), "stats.yaml")
	stats := TradeStats{
		ID:        "run-1",
		Symbol:    "MICROBTCUSDT",
		Timeframe: "1h",
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Duration:  24 * time.Hour,
		Bars:      25,
		TradeResult: TradeResult{
			NumberOfTrades: 2,
			WinRate:        50,
		},
		Equity: EquityResult{
			Initial: 10000,
			Final:   10100,
		},
		Strategy: StrategyInfo{Name: "SmaCross(10,20)", ShortPeriod: 10, LongPeriod: 20},
	}

	suite.Require().NoError(WriteTradeStats(path, stats))

	read, err := ReadTradeStats(path)
	suite.Require().NoError(err)
	suite.Equal(stats.ID, read.ID)
	suite.Equal(stats.Duration, read.Duration)
	suite.True(stats.Start.Equal(read.Start))
	suite.Equal(stats.TradeResult, read.TradeResult)
	suite.Equal(stats.Equity, read.Equity)
	suite.Equal(stats.Strategy, read.Strategy)
}

func (suite *StatisticsTestSuite) TestReadMissingFile() {
	_, err := ReadTradeStats(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.Error(err)
}
