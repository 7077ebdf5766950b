package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/ensemble-backtest/internal/backtest"
	"github.com/rxtech-lab/ensemble-backtest/internal/backtest/datasource"
	"github.com/rxtech-lab/ensemble-backtest/internal/backtest/resultlog"
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/logger"
	"github.com/rxtech-lab/ensemble-backtest/internal/optimizer"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

func loadConfig(path string) (config.BacktestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.BacktestConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return config.ParseConfig(data)
}

// runAction executes a single backtest and optionally persists the
// statistics to the result log and a YAML report.
func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	source, err := datasource.NewDuckDBDataSource(cmd.String("data"), log)
	if err != nil {
		return err
	}
	defer source.Close()

	runner := backtest.NewRunner(source, log)
	runner.SetShowProgress(cmd.Bool("progress"))
	result, err := runner.Run(cfg)
	if err != nil {
		return err
	}
	stats := result.Stats

	log.Info("backtest finished",
		zap.Float64("final_equity", stats.FinalEquity),
		zap.Float64("total_return", stats.TotalReturn),
		zap.Float64("cagr", stats.CAGR),
		zap.Float64("max_drawdown", stats.MaxDrawdown),
		zap.Int("total_trades", stats.TotalTrades))

	if resultsPath := cmd.String("results"); resultsPath != "" {
		resultLogger, err := resultlog.NewResultLogger(resultsPath, log)
		if err != nil {
			return err
		}
		defer resultLogger.Close()
		if err := resultLogger.AppendRun(cfg.Context(), stats); err != nil {
			return err
		}
		log.Info("logged run", zap.String("run_id", stats.ID), zap.String("path", resultsPath))
	}

	if outputPath := cmd.String("output"); outputPath != "" {
		if err := types.WritePerformanceStats(outputPath, *stats); err != nil {
			return err
		}
		log.Info("wrote performance report", zap.String("path", outputPath))
	}
	return nil
}

// optimizeAction sweeps a parameter grid and prints the top results.
func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	gridData, err := os.ReadFile(cmd.String("grid"))
	if err != nil {
		return fmt.Errorf("failed to read grid %s: %w", cmd.String("grid"), err)
	}
	var grid optimizer.Grid
	if err := yaml.Unmarshal(gridData, &grid); err != nil {
		return fmt.Errorf("failed to parse grid %s: %w", cmd.String("grid"), err)
	}

	source, err := datasource.NewDuckDBDataSource(cmd.String("data"), log)
	if err != nil {
		return err
	}
	defer source.Close()

	opt := optimizer.New(source, log)
	if workers := cmd.Int("workers"); workers > 0 {
		opt.SetWorkers(int(workers))
	}
	results, err := opt.Run(cfg, grid)
	if err != nil {
		return err
	}

	top := int(cmd.Int("top"))
	if top > len(results) {
		top = len(results)
	}
	for i := 0; i < top; i++ {
		res := results[i]
		if res.Err != nil {
			fmt.Printf("%2d. params=%v error=%v\n", i+1, res.Params, res.Err)
			continue
		}
		fmt.Printf("%2d. params=%v cagr=%.2f%% mdd=%.2f%% trades=%d\n",
			i+1, res.Params, res.Stats.CAGR, res.Stats.MaxDrawdown, res.Stats.TotalTrades)
	}
	return nil
}

// schemaAction prints the JSON schema for the YAML configuration.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.BacktestConfig{}
	schema, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return err
	}
	fmt.Println(schema)
	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to the backtest YAML configuration",
		Required: true,
	}
	dataFlag := &cli.StringFlag{
		Name:    "data",
		Aliases: []string{"d"},
		Usage:   "Path to the DuckDB price database",
		Value:   "data/market.duckdb",
	}

	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Ensemble portfolio backtesting",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a single backtest",
				Flags: []cli.Flag{
					configFlag,
					dataFlag,
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Path to the DuckDB result log (empty disables logging)",
						Value:   "results/backtest_results.duckdb",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Optional YAML report path",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Show a progress bar during the simulation",
						Value: true,
					},
				},
				Action: runAction,
			},
			{
				Name:  "optimize",
				Usage: "Sweep a parameter grid",
				Flags: []cli.Flag{
					configFlag,
					dataFlag,
					&cli.StringFlag{
						Name:     "grid",
						Aliases:  []string{"g"},
						Usage:    "Path to a YAML file mapping parameter names to candidate values",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Worker pool size (defaults to GOMAXPROCS)",
					},
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"n"},
						Usage:   "How many top combinations to print",
						Value:   10,
					},
				},
				Action: optimizeAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema for the configuration file",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
