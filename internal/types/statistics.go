package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeHoldingTime struct {
	// Minimum holding time of a trade in seconds
	Min int `yaml:"min"`
	// Maximum holding time of a trade in seconds
	Max int `yaml:"max"`
	// Average holding time of a trade in seconds
	Avg int `yaml:"avg"`
}

type TradePnl struct {
	// Realized PnL. Sum of all closed trades' pnl.
	RealizedPnL float64 `yaml:"realized_pnl"`
	// Unrealized PnL of the position still open at the last bar.
	UnrealizedPnL float64 `yaml:"unrealized_pnl"`
	// Total PnL. RealizedPnL plus UnrealizedPnL.
	TotalPnL float64 `yaml:"total_pnl"`
	// Maximum loss. The smallest closed trade pnl.
	MaximumLoss float64 `yaml:"maximum_loss"`
	// Maximum profit. The largest closed trade pnl.
	MaximumProfit float64 `yaml:"maximum_profit"`
}

type TradeResult struct {
	// Count of closed trades.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of winning trades that has positive pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of losing trades that has negative pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Win rate in percent.
	WinRate float64 `yaml:"win_rate"`
	// Best trade return in percent.
	BestTradePct float64 `yaml:"best_trade_pct"`
	// Worst trade return in percent.
	WorstTradePct float64 `yaml:"worst_trade_pct"`
	// Average trade return in percent.
	AvgTradePct float64 `yaml:"avg_trade_pct"`
	// Gross profit divided by gross loss. Zero when there is no losing trade.
	ProfitFactor float64 `yaml:"profit_factor"`
}

type OrderResult struct {
	// Count of journaled orders.
	NumberOfOrders int `yaml:"number_of_orders"`
	// Count of filled orders.
	NumberOfFilledOrders int `yaml:"number_of_filled_orders"`
	// Count of orders rejected for insufficient buying or selling power.
	NumberOfRejectedOrders int `yaml:"number_of_rejected_orders"`
}

type EquityResult struct {
	// Initial capital.
	Initial float64 `yaml:"initial"`
	// Equity after the last bar.
	Final float64 `yaml:"final"`
	// Highest equity reached.
	Peak float64 `yaml:"peak"`
	// Return in percent.
	ReturnPct float64 `yaml:"return_pct"`
	// Buy and hold return of the underlying over the same period in percent.
	BuyAndHoldReturnPct float64 `yaml:"buy_and_hold_return_pct"`
	// Maximum drawdown in percent, reported as a negative number.
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct"`
	// Share of bars with an open position in percent.
	ExposureTimePct float64 `yaml:"exposure_time_pct"`
}

// StrategyInfo contains metadata about the strategy that generated stats.
type StrategyInfo struct {
	// Name is the human-readable name of the strategy, e.g. SmaCross(10,20)
	Name string `yaml:"name" json:"name"`
	// ShortPeriod is the short moving average period
	ShortPeriod int `yaml:"short_period" json:"short_period"`
	// LongPeriod is the long moving average period
	LongPeriod int `yaml:"long_period" json:"long_period"`
}

type TradeStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the trading pair.
	Symbol string `yaml:"symbol"`
	// Timeframe of the bars.
	Timeframe string `yaml:"timeframe"`
	// Start is the time of the first bar.
	Start time.Time `yaml:"start"`
	// End is the time of the last bar.
	End time.Time `yaml:"end"`
	// Duration between the first and the last bar.
	Duration time.Duration `yaml:"duration"`
	// Bars is the number of bars replayed.
	Bars int `yaml:"bars"`
	// Number of signals the strategy emitted.
	Signals int `yaml:"signals"`
	// Result of all trades.
	TradeResult TradeResult `yaml:"trade_result"`
	// Filled and rejected orders.
	OrderResult OrderResult `yaml:"order_result"`
	// Equity curve summary.
	Equity EquityResult `yaml:"equity"`
	// Total fees.
	TotalFees float64 `yaml:"total_fees"`
	// Holding time of all trades.
	TradeHoldingTime TradeHoldingTime `yaml:"trade_holding_time"`
	// PnL of all trades.
	TradePnl TradePnl `yaml:"trade_pnl"`
	// Strategy contains metadata about the strategy that generated these stats.
	Strategy StrategyInfo `yaml:"strategy" json:"strategy"`
	// DataPath is the path to the market data file used for this backtest.
	DataPath string `yaml:"data_path" json:"data_path"`
	// TradesFilePath is the path to the trades csv file.
	TradesFilePath string `yaml:"trades_file_path" json:"trades_file_path"`
	// OrdersFilePath is the path to the orders csv file.
	OrdersFilePath string `yaml:"orders_file_path" json:"orders_file_path"`
	// EquityFilePath is the path to the equity csv file.
	EquityFilePath string `yaml:"equity_file_path" json:"equity_file_path"`
}

func WriteTradeStats(path string, stats TradeStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal trade stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trade stats to file: %w", err)
	}

	return nil
}

// ReadTradeStats reads a stats file written by WriteTradeStats.
func ReadTradeStats(path string) (TradeStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TradeStats{}, fmt.Errorf("failed to read trade stats file: %w", err)
	}

	var stats TradeStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return TradeStats{}, fmt.Errorf("failed to unmarshal trade stats: %w", err)
	}

	return stats, nil
}
