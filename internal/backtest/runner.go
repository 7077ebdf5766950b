// Package backtest wires the data source, signal pipeline, portfolio
// engine and metrics into a single run.
package backtest

import (
	"go.uber.org/zap"

	"github.com/rxtech-lab/ensemble-backtest/internal/backtest/datasource"
	"github.com/rxtech-lab/ensemble-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/ensemble-backtest/internal/backtest/metrics"
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/logger"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

// RunResult bundles everything one backtest produces.
type RunResult struct {
	Stats      *types.PerformanceStats
	Simulation *engine.Result
}

// Runner executes full backtests against a data source.
type Runner struct {
	source       datasource.DataSource
	logger       *logger.Logger
	showProgress bool
}

func NewRunner(source datasource.DataSource, log *logger.Logger) *Runner {
	return &Runner{source: source, logger: log}
}

func (r *Runner) SetShowProgress(show bool) {
	r.showProgress = show
}

// Run loads the configured universe, builds candidates, simulates the
// portfolio and computes statistics including the passive benchmarks.
func (r *Runner) Run(cfg config.BacktestConfig) (*RunResult, error) {
	ctx := cfg.Context()

	benchmark, err := datasource.GetSeries(r.source, cfg.BenchmarkSymbol, cfg.StartTime, cfg.EndTime)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err,
			"failed to load benchmark %s", cfg.BenchmarkSymbol)
	}

	var seriesSet []*types.Series
	for _, symbol := range cfg.Symbols {
		series, err := datasource.GetSeries(r.source, symbol, cfg.StartTime, cfg.EndTime)
		if err != nil {
			r.logger.Warn("skipping symbol without history",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		seriesSet = append(seriesSet, series)
	}
	if len(seriesSet) == 0 {
		return nil, errors.New(errors.ErrCodeNoCandidates, "no configured symbol has history")
	}

	market, err := engine.BuildCandidates(seriesSet, benchmark, ctx, r.logger)
	if err != nil {
		return nil, err
	}

	eng := engine.NewPortfolioEngine(ctx, r.logger)
	eng.SetShowProgress(r.showProgress)
	simulation, err := eng.Run(market)
	if err != nil {
		return nil, err
	}

	stats := metrics.Compute(simulation)
	if buyHold, err := metrics.BuyAndHold(benchmark.Bars, cfg.InitialCapital); err == nil {
		stats.BuyAndHold = buyHold
	} else {
		r.logger.Warn("buy-and-hold benchmark unavailable", zap.Error(err))
	}
	monthly := ctx.Float("dca_monthly_amount", 100)
	if dca, err := metrics.DollarCostAverage(benchmark.Bars, monthly); err == nil {
		stats.DCA = dca
	} else {
		r.logger.Warn("dca benchmark unavailable", zap.Error(err))
	}

	return &RunResult{Stats: stats, Simulation: simulation}, nil
}
