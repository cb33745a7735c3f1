package engine

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// statsInput is everything a finished run contributes to its TradeStats.
type statsInput struct {
	runID          string
	timestamp      time.Time
	series         types.TimeSeries
	initialCapital float64
	trades         []types.Trade
	orders         []types.Order
	equity         []types.EquityPoint
	account        types.AccountInfo
	signals        int
	strategy       types.StrategyInfo
	dataPath       string
	files          ResultFiles
}

func calculateStats(input statsInput) types.TradeStats {
	stats := types.TradeStats{
		ID:               input.runID,
		Timestamp:        input.timestamp,
		Symbol:           input.series.Symbol(),
		Timeframe:        input.series.Timeframe().String(),
		Bars:             len(input.equity),
		Signals:          input.signals,
		TradeResult:      calculateTradeResult(input.trades),
		OrderResult:      calculateOrderResult(input.orders),
		Equity:           calculateEquityResult(input.initialCapital, input.equity),
		TotalFees:        input.account.TotalFees,
		TradeHoldingTime: calculateHoldingTime(input.trades),
		TradePnl:         calculateTradePnl(input.trades, input.account.UnrealizedPnL),
		Strategy:         input.strategy,
		DataPath:         input.dataPath,
		TradesFilePath:   input.files.Trades,
		OrdersFilePath:   input.files.Orders,
		EquityFilePath:   input.files.Equity,
	}

	if first, last := input.series.First(), input.series.Last(); first.IsSome() && last.IsSome() {
		stats.Start = first.Unwrap().Time
		stats.End = last.Unwrap().Time
		stats.Duration = stats.End.Sub(stats.Start)
	}

	return stats
}

func calculateTradeResult(trades []types.Trade) types.TradeResult {
	result := types.TradeResult{}
	if len(trades) == 0 {
		return result
	}

	result.NumberOfTrades = len(trades)
	result.BestTradePct = math.Inf(-1)
	result.WorstTradePct = math.Inf(1)

	var grossProfit, grossLoss, sumPct float64

	for _, trade := range trades {
		switch {
		case trade.PnL > 0:
			result.NumberOfWinningTrades++
			grossProfit += trade.PnL
		case trade.PnL < 0:
			result.NumberOfLosingTrades++
			grossLoss -= trade.PnL
		}

		result.BestTradePct = math.Max(result.BestTradePct, trade.ReturnPct)
		result.WorstTradePct = math.Min(result.WorstTradePct, trade.ReturnPct)
		sumPct += trade.ReturnPct
	}

	result.WinRate = float64(result.NumberOfWinningTrades) / float64(result.NumberOfTrades) * 100
	result.AvgTradePct = sumPct / float64(result.NumberOfTrades)

	if grossLoss > 0 {
		result.ProfitFactor = grossProfit / grossLoss
	}

	return result
}

func calculateOrderResult(orders []types.Order) types.OrderResult {
	result := types.OrderResult{NumberOfOrders: len(orders)}

	for _, order := range orders {
		switch order.Status {
		case types.OrderStatusFilled:
			result.NumberOfFilledOrders++
		case types.OrderStatusRejected:
			result.NumberOfRejectedOrders++
		}
	}

	return result
}

func calculateEquityResult(initial float64, curve []types.EquityPoint) types.EquityResult {
	result := types.EquityResult{
		Initial: initial,
		Final:   initial,
		Peak:    initial,
	}

	if len(curve) == 0 {
		return result
	}

	peak := initial
	exposed := 0

	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}

		if peak > 0 {
			drawdown := (point.Equity/peak - 1) * 100
			result.MaxDrawdownPct = math.Min(result.MaxDrawdownPct, drawdown)
		}

		if point.InPosition {
			exposed++
		}
	}

	first := curve[0]
	last := curve[len(curve)-1]

	result.Final = last.Equity
	result.Peak = peak
	result.ExposureTimePct = float64(exposed) / float64(len(curve)) * 100

	if initial != 0 {
		result.ReturnPct = (result.Final - initial) / initial * 100
	}

	if first.Close != 0 {
		result.BuyAndHoldReturnPct = (last.Close - first.Close) / first.Close * 100
	}

	return result
}

func calculateHoldingTime(trades []types.Trade) types.TradeHoldingTime {
	result := types.TradeHoldingTime{}
	if len(trades) == 0 {
		return result
	}

	var total time.Duration

	minimum := trades[0].HoldingTime()
	maximum := minimum

	for _, trade := range trades {
		holding := trade.HoldingTime()
		total += holding
		minimum = min(minimum, holding)
		maximum = max(maximum, holding)
	}

	result.Min = int(minimum.Seconds())
	result.Max = int(maximum.Seconds())
	result.Avg = int((total / time.Duration(len(trades))).Seconds())

	return result
}

func calculateTradePnl(trades []types.Trade, unrealized float64) types.TradePnl {
	result := types.TradePnl{UnrealizedPnL: unrealized}

	for i, trade := range trades {
		result.RealizedPnL += trade.PnL

		if i == 0 {
			result.MaximumLoss = trade.PnL
			result.MaximumProfit = trade.PnL

			continue
		}

		result.MaximumLoss = math.Min(result.MaximumLoss, trade.PnL)
		result.MaximumProfit = math.Max(result.MaximumProfit, trade.PnL)
	}

	result.TotalPnL = result.RealizedPnL + result.UnrealizedPnL

	return result
}
