package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the single open position the backtest holds for a symbol.
type Position struct {
	Symbol       string       `csv:"symbol"`
	Type         PositionType `csv:"position_type"`
	Quantity     float64      `csv:"quantity"`
	EntryPrice   float64      `csv:"entry_price"`
	EntryFee     float64      `csv:"entry_fee"`
	EntryTime    time.Time    `csv:"entry_time"`
	StrategyName string       `csv:"strategy_name"`
}

// IsOpen reports whether the position holds any quantity.
func (p Position) IsOpen() bool {
	return p.Quantity > 0
}

// MarketValue returns the signed value of the position at price: positive for longs,
// negative for shorts.
func (p Position) MarketValue(price float64) float64 {
	value := decimal.NewFromFloat(p.Quantity).Mul(decimal.NewFromFloat(price))
	if p.Type == PositionTypeShort {
		value = value.Neg()
	}

	result, _ := value.Float64()

	return result
}

// UnrealizedPnL returns the profit of closing the position at price, net of the entry fee.
func (p Position) UnrealizedPnL(price float64) float64 {
	if !p.IsOpen() {
		return 0
	}

	result, _ := grossPnL(p.Type, p.Quantity, p.EntryPrice, price).
		Sub(decimal.NewFromFloat(p.EntryFee)).
		Float64()

	return result
}

// Trade is a closed round trip: one entry fill and one exit fill.
type Trade struct {
	Symbol       string       `csv:"symbol" yaml:"symbol"`
	PositionType PositionType `csv:"position_type" yaml:"position_type"`
	Quantity     float64      `csv:"quantity" yaml:"quantity"`
	EntryTime    time.Time    `csv:"entry_time" yaml:"entry_time"`
	ExitTime     time.Time    `csv:"exit_time" yaml:"exit_time"`
	EntryPrice   float64      `csv:"entry_price" yaml:"entry_price"`
	ExitPrice    float64      `csv:"exit_price" yaml:"exit_price"`
	// Fee is the entry fee plus the exit fee
	Fee float64 `csv:"fee" yaml:"fee"`
	// PnL is the profit and loss net of both fees.
	// For example, a long of 100 units entered at 10.0 and exited at 11.0 with 1.0 fee per side
	// has PnL (11.0-10.0)*100 - 2.0 = 98.0.
	PnL float64 `csv:"pnl" yaml:"pnl"`
	// ReturnPct is PnL relative to the entry notional, in percent
	ReturnPct    float64 `csv:"return_pct" yaml:"return_pct"`
	StrategyName string  `csv:"strategy_name" yaml:"strategy_name"`
}

// CloseTrade builds the Trade produced by closing position at exitPrice.
func CloseTrade(position Position, exitTime time.Time, exitPrice float64, exitFee float64) Trade {
	fee := decimal.NewFromFloat(position.EntryFee).Add(decimal.NewFromFloat(exitFee))
	pnl := grossPnL(position.Type, position.Quantity, position.EntryPrice, exitPrice).Sub(fee)

	entryNotional := decimal.NewFromFloat(position.Quantity).Mul(decimal.NewFromFloat(position.EntryPrice))

	returnPct := decimal.Zero
	if !entryNotional.IsZero() {
		returnPct = pnl.Div(entryNotional).Mul(decimal.NewFromInt(100))
	}

	feeValue, _ := fee.Float64()
	pnlValue, _ := pnl.Float64()
	returnValue, _ := returnPct.Float64()

	return Trade{
		Symbol:       position.Symbol,
		PositionType: position.Type,
		Quantity:     position.Quantity,
		EntryTime:    position.EntryTime,
		ExitTime:     exitTime,
		EntryPrice:   position.EntryPrice,
		ExitPrice:    exitPrice,
		Fee:          feeValue,
		PnL:          pnlValue,
		ReturnPct:    returnValue,
		StrategyName: position.StrategyName,
	}
}

// HoldingTime returns how long the trade was open.
func (t Trade) HoldingTime() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// grossPnL is the price difference times quantity, with the sign flipped for shorts.
func grossPnL(positionType PositionType, quantity, entryPrice, exitPrice float64) decimal.Decimal {
	diff := decimal.NewFromFloat(exitPrice).Sub(decimal.NewFromFloat(entryPrice))
	if positionType == PositionTypeShort {
		diff = diff.Neg()
	}

	return diff.Mul(decimal.NewFromFloat(quantity))
}
