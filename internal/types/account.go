package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// AccountInfo represents the current account state including balance, equity, and P&L information.
type AccountInfo struct {
	// Balance is the current cash balance (excluding unrealized P&L)
	Balance float64 `json:"balance" yaml:"balance"`
	// Equity is the total account value: cash plus the signed market value of the open position
	Equity float64 `json:"equity" yaml:"equity"`
	// RealizedPnL is the total realized profit/loss from closed trades
	RealizedPnL float64 `json:"realized_pnl" yaml:"realized_pnl"`
	// UnrealizedPnL is the profit/loss of the open position at the last close
	UnrealizedPnL float64 `json:"unrealized_pnl" yaml:"unrealized_pnl"`
	// TotalFees is the total fees paid
	TotalFees float64 `json:"total_fees" yaml:"total_fees"`
}

// EquityPoint is the account value after a bar has been processed.
type EquityPoint struct {
	Time   time.Time `csv:"time"`
	Close  float64   `csv:"close"`
	Cash   float64   `csv:"cash"`
	Equity float64   `csv:"equity"`
	// ShortMA and LongMA are None until enough bars are available
	ShortMA optional.Option[float64] `csv:"short_ma"`
	LongMA  optional.Option[float64] `csv:"long_ma"`
	// InPosition is true when a position was open after the bar
	InPosition bool `csv:"in_position"`
}
