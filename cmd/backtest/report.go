package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	labelStyle    = lipgloss.NewStyle().Faint(true).Width(24)
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func formatPct(value float64) string {
	text := fmt.Sprintf("%.2f%%", value)

	switch {
	case value > 0:
		return positiveStyle.Render(text)
	case value < 0:
		return negativeStyle.Render(text)
	default:
		return text
	}
}

func row(label string, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// renderReport formats the summary of one run for the terminal.
func renderReport(stats types.TradeStats, resultFolderPath string) string {
	title := titleStyle.Render(fmt.Sprintf("%s %s %s", stats.Strategy.Name, stats.Symbol, stats.Timeframe))

	rows := []string{
		title,
		"",
		row("Start", stats.Start.Format(time.RFC3339)),
		row("End", stats.End.Format(time.RFC3339)),
		row("Duration", stats.Duration.String()),
		row("Bars", fmt.Sprintf("%d", stats.Bars)),
		row("Exposure time", fmt.Sprintf("%.2f%%", stats.Equity.ExposureTimePct)),
		row("Equity final", fmt.Sprintf("%.2f", stats.Equity.Final)),
		row("Equity peak", fmt.Sprintf("%.2f", stats.Equity.Peak)),
		row("Return", formatPct(stats.Equity.ReturnPct)),
		row("Buy & hold return", formatPct(stats.Equity.BuyAndHoldReturnPct)),
		row("Max drawdown", formatPct(stats.Equity.MaxDrawdownPct)),
		row("Trades", fmt.Sprintf("%d", stats.TradeResult.NumberOfTrades)),
		row("Rejected orders", fmt.Sprintf("%d", stats.OrderResult.NumberOfRejectedOrders)),
		row("Win rate", fmt.Sprintf("%.2f%%", stats.TradeResult.WinRate)),
		row("Best trade", formatPct(stats.TradeResult.BestTradePct)),
		row("Worst trade", formatPct(stats.TradeResult.WorstTradePct)),
		row("Avg trade", formatPct(stats.TradeResult.AvgTradePct)),
		row("Profit factor", fmt.Sprintf("%.2f", stats.TradeResult.ProfitFactor)),
		row("Total fees", fmt.Sprintf("%.2f", stats.TotalFees)),
		row("Realized PnL", fmt.Sprintf("%.2f", stats.TradePnl.RealizedPnL)),
		row("Unrealized PnL", fmt.Sprintf("%.2f", stats.TradePnl.UnrealizedPnL)),
		"",
		row("Results", resultFolderPath),
	}

	return boxStyle.Render(strings.Join(rows, "\n"))
}
