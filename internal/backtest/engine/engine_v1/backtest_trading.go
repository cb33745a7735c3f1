package engine

import (
	"math"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/internal/utils"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BacktestTrading simulates a single-symbol account that fills every signal at the close of the bar
// that produced it. It holds at most one position, long or short.
type BacktestTrading struct {
	state            *BacktestState
	logger           *logger.Logger
	commission       commission_fee.CommissionFee
	positionSize     float64
	decimalPrecision int
	cash             decimal.Decimal
	realizedPnL      decimal.Decimal
	totalFees        decimal.Decimal
	position         optional.Option[types.Position]
	marketData       types.MarketData
	signals          int
}

func NewBacktestTrading(
	state *BacktestState,
	log *logger.Logger,
	initialBalance float64,
	commission commission_fee.CommissionFee,
	positionSize float64,
	decimalPrecision int,
) *BacktestTrading {
	return &BacktestTrading{
		state:            state,
		logger:           log,
		commission:       commission,
		positionSize:     positionSize,
		decimalPrecision: decimalPrecision,
		cash:             decimal.NewFromFloat(initialBalance),
		realizedPnL:      decimal.Zero,
		totalFees:        decimal.Zero,
		position:         optional.None[types.Position](),
		marketData:       types.MarketData{},
		signals:          0,
	}
}

// UpdateCurrentMarketData sets the bar used for valuation and end-of-data closes.
func (b *BacktestTrading) UpdateCurrentMarketData(marketData types.MarketData) {
	b.marketData = marketData
}

// Reset restores the account to its initial state for a new run.
func (b *BacktestTrading) Reset(initialBalance float64) {
	b.cash = decimal.NewFromFloat(initialBalance)
	b.realizedPnL = decimal.Zero
	b.totalFees = decimal.Zero
	b.position = optional.None[types.Position]()
	b.marketData = types.MarketData{}
	b.signals = 0
}

// OnSignal implements trading.ExecutionEngine.
func (b *BacktestTrading) OnSignal(signal types.Signal, bar types.MarketData) error {
	if math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) || bar.Close <= 0 {
		return errors.Newf(errors.ErrCodeMarketDataMissing, "cannot fill at close price %v", bar.Close)
	}

	b.marketData = bar
	b.signals++

	b.logger.Debug("Signal received",
		zap.String("signal", string(signal.Type)),
		zap.Time("time", bar.Time),
		zap.Float64("close", bar.Close),
	)

	switch signal.Type {
	case types.SignalTypeEnterLong:
		return b.enter(types.PositionTypeLong, signal, bar)
	case types.SignalTypeEnterShort:
		return b.enter(types.PositionTypeShort, signal, bar)
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "signal %q is not actionable", signal.Type)
	}
}

// enter closes an opposite position, then opens or adds to a position of positionType.
func (b *BacktestTrading) enter(positionType types.PositionType, signal types.Signal, bar types.MarketData) error {
	if b.position.IsSome() && b.position.Unwrap().Type != positionType {
		if err := b.closePosition(bar, types.Reason{Reason: types.OrderReasonClosePosition, Message: signal.Reason}); err != nil {
			return err
		}
	}

	price := decimal.NewFromFloat(bar.Close)
	equity := b.equityAt(price)

	exposure := decimal.Zero
	if b.position.IsSome() {
		exposure = decimal.NewFromFloat(b.position.Unwrap().Quantity).Mul(price)
	}

	budget, _ := equity.Mul(decimal.NewFromFloat(b.positionSize)).Sub(exposure).Float64()
	quantity := utils.SizeOrder(budget, bar.Close, b.commission, 1, b.decimalPrecision)

	side := types.PurchaseTypeBuy
	if positionType == types.PositionTypeShort {
		side = types.PurchaseTypeSell
	}

	if quantity <= 0 {
		reason := types.OrderReasonInsufficientBuyPower
		if positionType == types.PositionTypeShort {
			reason = types.OrderReasonInsufficientSellPower
		}

		b.logger.Warn("Order rejected",
			zap.String("reason", reason),
			zap.Time("time", bar.Time),
			zap.Float64("budget", budget),
			zap.Float64("price", bar.Close),
		)

		return b.record(types.Order{
			OrderID:      uuid.New().String(),
			Symbol:       b.symbolFor(signal, bar),
			Side:         side,
			Quantity:     0,
			Price:        bar.Close,
			Timestamp:    bar.Time,
			Status:       types.OrderStatusRejected,
			Reason:       types.Reason{Reason: reason, Message: signal.Reason},
			StrategyName: signal.Name,
			Fee:          0,
			PositionType: positionType,
		})
	}

	fee := b.commission.Calculate(quantity, bar.Close)
	notional := decimal.NewFromFloat(quantity).Mul(price)
	feeValue := decimal.NewFromFloat(fee)

	if positionType == types.PositionTypeLong {
		b.cash = b.cash.Sub(notional).Sub(feeValue)
	} else {
		b.cash = b.cash.Add(notional).Sub(feeValue)
	}

	b.totalFees = b.totalFees.Add(feeValue)

	if b.position.IsSome() {
		b.position = optional.Some(addToPosition(b.position.Unwrap(), quantity, bar.Close, fee))
	} else {
		b.position = optional.Some(types.Position{
			Symbol:       b.symbolFor(signal, bar),
			Type:         positionType,
			Quantity:     quantity,
			EntryPrice:   bar.Close,
			EntryFee:     fee,
			EntryTime:    bar.Time,
			StrategyName: signal.Name,
		})
	}

	b.logger.Debug("Order filled",
		zap.String("side", string(side)),
		zap.Float64("quantity", quantity),
		zap.Float64("price", bar.Close),
		zap.Float64("fee", fee),
	)

	return b.record(types.Order{
		OrderID:      uuid.New().String(),
		Symbol:       b.symbolFor(signal, bar),
		Side:         side,
		Quantity:     quantity,
		Price:        bar.Close,
		Timestamp:    bar.Time,
		Status:       types.OrderStatusFilled,
		Reason:       types.Reason{Reason: types.OrderReasonStrategy, Message: signal.Reason},
		StrategyName: signal.Name,
		Fee:          fee,
		PositionType: positionType,
	})
}

// closePosition fills the whole open position at the bar close and journals the round trip.
func (b *BacktestTrading) closePosition(bar types.MarketData, reason types.Reason) error {
	if b.position.IsNone() {
		return nil
	}

	position := b.position.Unwrap()
	price := decimal.NewFromFloat(bar.Close)
	notional := decimal.NewFromFloat(position.Quantity).Mul(price)
	fee := b.commission.Calculate(position.Quantity, bar.Close)
	feeValue := decimal.NewFromFloat(fee)

	side := types.PurchaseTypeSell
	if position.Type == types.PositionTypeLong {
		b.cash = b.cash.Add(notional).Sub(feeValue)
	} else {
		side = types.PurchaseTypeBuy
		b.cash = b.cash.Sub(notional).Sub(feeValue)
	}

	b.totalFees = b.totalFees.Add(feeValue)
	b.position = optional.None[types.Position]()

	trade := types.CloseTrade(position, bar.Time, bar.Close, fee)
	b.realizedPnL = b.realizedPnL.Add(decimal.NewFromFloat(trade.PnL))

	b.logger.Debug("Position closed",
		zap.String("position_type", string(position.Type)),
		zap.Float64("quantity", position.Quantity),
		zap.Float64("pnl", trade.PnL),
	)

	err := b.record(types.Order{
		OrderID:      uuid.New().String(),
		Symbol:       position.Symbol,
		Side:         side,
		Quantity:     position.Quantity,
		Price:        bar.Close,
		Timestamp:    bar.Time,
		Status:       types.OrderStatusFilled,
		Reason:       reason,
		StrategyName: position.StrategyName,
		Fee:          fee,
		PositionType: position.Type,
	})
	if err != nil {
		return err
	}

	if err := b.state.RecordTrade(trade); err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "failed to record trade", err)
	}

	return nil
}

// CloseAll closes the open position, if any, at the last bar passed to UpdateCurrentMarketData.
func (b *BacktestTrading) CloseAll(message string) error {
	if b.position.IsNone() {
		return nil
	}

	if b.marketData.Close <= 0 {
		return errors.New(errors.ErrCodeMarketDataMissing, "no market data to close the position at")
	}

	return b.closePosition(b.marketData, types.Reason{Reason: types.OrderReasonEndOfData, Message: message})
}

// GetPosition returns the open position.
func (b *BacktestTrading) GetPosition() optional.Option[types.Position] {
	return b.position
}

// GetAccountInfo values the account at the current bar close.
func (b *BacktestTrading) GetAccountInfo() types.AccountInfo {
	price := decimal.NewFromFloat(b.marketData.Close)

	balance, _ := b.cash.Float64()
	equity, _ := b.equityAt(price).Float64()
	realized, _ := b.realizedPnL.Float64()
	fees, _ := b.totalFees.Float64()

	unrealized := 0.0
	if b.position.IsSome() {
		unrealized = b.position.Unwrap().UnrealizedPnL(b.marketData.Close)
	}

	return types.AccountInfo{
		Balance:       balance,
		Equity:        equity,
		RealizedPnL:   realized,
		UnrealizedPnL: unrealized,
		TotalFees:     fees,
	}
}

// SignalCount returns how many signals were handled since the last reset.
func (b *BacktestTrading) SignalCount() int {
	return b.signals
}

// equityAt is cash plus the signed market value of the open position.
func (b *BacktestTrading) equityAt(price decimal.Decimal) decimal.Decimal {
	if b.position.IsNone() {
		return b.cash
	}

	position := b.position.Unwrap()
	value := decimal.NewFromFloat(position.Quantity).Mul(price)

	if position.Type == types.PositionTypeShort {
		return b.cash.Sub(value)
	}

	return b.cash.Add(value)
}

func (b *BacktestTrading) record(order types.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	if err := b.state.RecordOrder(order); err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "failed to record order", err)
	}

	return nil
}

func (b *BacktestTrading) symbolFor(signal types.Signal, bar types.MarketData) string {
	if signal.Symbol != "" {
		return signal.Symbol
	}

	return bar.Symbol
}

// addToPosition merges a new fill into an existing position at the volume weighted entry price.
func addToPosition(position types.Position, quantity float64, price float64, fee float64) types.Position {
	oldQty := decimal.NewFromFloat(position.Quantity)
	newQty := decimal.NewFromFloat(quantity)
	total := oldQty.Add(newQty)

	entry := oldQty.Mul(decimal.NewFromFloat(position.EntryPrice)).
		Add(newQty.Mul(decimal.NewFromFloat(price))).
		Div(total)

	position.Quantity, _ = total.Float64()
	position.EntryPrice, _ = entry.Float64()
	position.EntryFee += fee

	return position
}
