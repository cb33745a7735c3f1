package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReport(t *testing.T) {
	stats := types.TradeStats{
		Symbol:    "MICROBTCUSDT",
		Timeframe: "1h",
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Duration:  24 * time.Hour,
		Bars:      25,
		Strategy:  types.StrategyInfo{Name: "SmaCross(10,20)", ShortPeriod: 10, LongPeriod: 20},
		TradeResult: types.TradeResult{
			NumberOfTrades: 3,
			WinRate:        66.67,
			ProfitFactor:   1.5,
		},
		Equity: types.EquityResult{
			Final:     10512.34,
			ReturnPct: 5.1234,
		},
	}

	report := renderReport(stats, "results/run")

	assert.Contains(t, report, "SmaCross(10,20) MICROBTCUSDT 1h")
	assert.Contains(t, report, "2024-01-01T00:00:00Z")
	assert.Contains(t, report, "10512.34")
	assert.Contains(t, report, "5.12%")
	assert.Contains(t, report, "66.67%")
	assert.Contains(t, report, "results/run")
}

func TestFormatPct(t *testing.T) {
	assert.Contains(t, formatPct(1.234), "1.23%")
	assert.Contains(t, formatPct(-2.5), "-2.50%")
	assert.Equal(t, "0.00%", formatPct(0))
}

func TestRunActionMissingConfig(t *testing.T) {
	err := newCommand().Run(t.Context(), []string{"backtest", "run", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestRunActionInvalidTimeframe(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("data_dir: "+dir+"\n"), 0644))

	err := newCommand().Run(t.Context(), []string{
		"backtest", "run",
		"--config", configPath,
		"--results", filepath.Join(dir, "results"),
		"--timeframe", "2h",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'2h' is not a valid timeframe")
}

func TestReportAction(t *testing.T) {
	folder := t.TempDir()
	stats := types.TradeStats{
		ID:          "run",
		Symbol:      "MICROBTCUSDT",
		Timeframe:   "5m",
		Strategy:    types.StrategyInfo{Name: "SmaCross(10,20)", ShortPeriod: 10, LongPeriod: 20},
		OrderResult: types.OrderResult{NumberOfOrders: 3, NumberOfFilledOrders: 2, NumberOfRejectedOrders: 1},
	}
	require.NoError(t, types.WriteTradeStats(filepath.Join(folder, "stats.yaml"), stats))

	require.NoError(t, newCommand().Run(t.Context(), []string{"backtest", "report", "--folder", folder}))
}

func TestReportActionMissingStats(t *testing.T) {
	folder := t.TempDir()

	err := newCommand().Run(t.Context(), []string{"backtest", "report", "--folder", folder})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDataNotFound))
	assert.Contains(t, err.Error(), "no run results in "+folder)
	assert.Equal(t, 1, exitCode(err))
}

func TestExitCode(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("data_dir: "+dir+"\n"), 0644))

	err := newCommand().Run(t.Context(), []string{
		"backtest", "run",
		"--config", configPath,
		"--results", filepath.Join(dir, "results"),
		"--timeframe", "4h",
	})
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	err = newCommand().Run(t.Context(), []string{"backtest", "run", "--config", filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestRenderReportShowsRejectedOrders(t *testing.T) {
	report := renderReport(types.TradeStats{
		OrderResult: types.OrderResult{NumberOfOrders: 5, NumberOfRejectedOrders: 2},
	}, "results/run")

	assert.Contains(t, report, "Rejected orders")
}
