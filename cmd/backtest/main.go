package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/strategy"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/internal/version"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// runAction loads the config, runs the crossover backtest and prints a report per run.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	resultsFolder := cmd.String("results")

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	log, err := logger.NewLoggerWithLevel(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	var config enginev1.BacktestEngineV1Config
	if err := yaml.Unmarshal(configData, &config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	crossover, err := strategy.NewSMACross(config.Strategy, log)
	if err != nil {
		return fmt.Errorf("failed to create strategy: %w", err)
	}

	backtester := enginev1.NewBacktestEngineV1(log)

	if err := backtester.Initialize(string(configData)); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if cmd.IsSet("timeframe") {
		if err := backtester.SetTimeframe(cmd.String("timeframe")); err != nil {
			return err
		}
	}

	if err := backtester.SetResultsFolder(resultsFolder); err != nil {
		return fmt.Errorf("failed to set results folder: %w", err)
	}

	if err := backtester.LoadStrategy(crossover); err != nil {
		return fmt.Errorf("failed to load strategy: %w", err)
	}

	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(runID string, totalDataPoints int) error {
		bar = progressbar.NewOptions(totalDataPoints,
			progressbar.OptionSetDescription(fmt.Sprintf("Running %s", crossover.Name())),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)

		return nil
	})
	onProcessData := engine.OnProcessDataCallback(func(current int, _ int) error {
		return bar.Set(current)
	})
	onRunEnd := engine.OnRunEndCallback(func(stats types.TradeStats, resultFolderPath string) {
		_ = bar.Finish()

		fmt.Fprintln(os.Stderr)
		fmt.Println(renderReport(stats, resultFolderPath))
	})

	err = backtester.Run(ctx, engine.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
		OnRunEnd:      &onRunEnd,
	})
	if err != nil {
		log.Error("Backtest failed", zap.Error(err))

		return fmt.Errorf("backtest failed: %w", err)
	}

	return nil
}

// schemaAction prints the JSON schema of the engine config, or of the strategy section.
func schemaAction(_ context.Context, cmd *cli.Command) error {
	var (
		schema string
		err    error
	)

	if cmd.Bool("strategy") {
		var crossover *strategy.SMACross

		crossover, err = strategy.NewSMACross(strategy.DefaultSMACrossConfig(), logger.NewNopLogger())
		if err != nil {
			return err
		}

		schema, err = crossover.GetConfigSchema()
	} else {
		schema, err = enginev1.NewBacktestEngineV1(logger.NewNopLogger()).GetConfigSchema()
	}

	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

// reportAction prints the report of a finished run from the stats file in its result folder.
func reportAction(_ context.Context, cmd *cli.Command) error {
	folder := cmd.String("folder")

	stats, err := types.ReadTradeStats(filepath.Join(folder, "stats.yaml"))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "no run results in %s", folder)
	}

	fmt.Println(renderReport(stats, folder))

	return nil
}

// exitCode returns 2 when a validation error such as an unknown timeframe is in the chain, 1 otherwise.
func exitCode(err error) int {
	if errors.IsInvalidArgument(err) {
		return 2
	}

	return 1
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "backtest",
		Usage:   "Backtest a moving average crossover strategy on historical bars",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the backtest and write results",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the backtest config `FILE`",
						Value:   "config/backtest_config.yaml",
					},
					&cli.StringFlag{
						Name:    "timeframe",
						Aliases: []string{"t"},
						Usage:   fmt.Sprintf("Bar timeframe overriding the config, one of %v", marketdata.ValidTimeframes),
					},
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Directory the results are written to",
						Value:   "results",
					},
					&cli.StringFlag{
						Name:  "log-level",
						Usage: "Log level (debug, info, warn, error)",
						Value: "warn",
					},
				},
				Action: runAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "strategy",
						Usage: "Print the schema of the strategy section only",
					},
				},
				Action: schemaAction,
			},
			{
				Name:  "report",
				Usage: "Print the report of a finished run",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "folder",
						Aliases:  []string{"f"},
						Usage:    "Result `DIR` of the run, containing stats.yaml",
						Required: true,
					},
				},
				Action: reportAction,
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(exitCode(err))
	}
}
