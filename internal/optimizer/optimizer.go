// Package optimizer sweeps a parameter grid, running one independent
// backtest per combination across a bounded worker pool.
package optimizer

import (
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/rxtech-lab/ensemble-backtest/internal/backtest"
	"github.com/rxtech-lab/ensemble-backtest/internal/backtest/datasource"
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/logger"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

// Grid maps a parameter name to its candidate values.
type Grid map[string][]any

// Combinations expands the grid into every parameter assignment, in a
// deterministic order (keys sorted, values in declaration order). A
// grid with no values at all expands to nil, not to one empty
// assignment.
func (g Grid) Combinations() []map[string]any {
	keys := make([]string, 0, len(g))
	for key := range g {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	combos := []map[string]any{{}}
	expanded := false
	for _, key := range keys {
		values := g[key]
		if len(values) == 0 {
			continue
		}
		expanded = true
		next := make([]map[string]any, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, value := range values {
				extended := make(map[string]any, len(combo)+1)
				for k, v := range combo {
					extended[k] = v
				}
				extended[key] = value
				next = append(next, extended)
			}
		}
		combos = next
	}
	if !expanded {
		return nil
	}
	return combos
}

// ComboResult is the outcome of one grid point. Err is set when that
// combination failed; its siblings still complete.
type ComboResult struct {
	Params map[string]any
	Stats  *types.PerformanceStats
	Err    error
}

// Objective extracts the value combinations are ranked by.
type Objective func(*types.PerformanceStats) float64

// ByCAGR is the default ranking objective.
func ByCAGR(stats *types.PerformanceStats) float64 {
	return stats.CAGR
}

// Optimizer runs a grid sweep against a shared data source.
type Optimizer struct {
	source    datasource.DataSource
	logger    *logger.Logger
	workers   int
	objective Objective
}

func New(source datasource.DataSource, log *logger.Logger) *Optimizer {
	return &Optimizer{
		source:    source,
		logger:    log,
		workers:   runtime.GOMAXPROCS(0),
		objective: ByCAGR,
	}
}

// SetWorkers bounds the pool; values below one fall back to one.
func (o *Optimizer) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	o.workers = n
}

func (o *Optimizer) SetObjective(objective Objective) {
	o.objective = objective
}

// Run executes one backtest per grid combination. Results come back
// sorted by the objective descending, failed combinations last.
func (o *Optimizer) Run(cfg config.BacktestConfig, grid Grid) ([]ComboResult, error) {
	combos := grid.Combinations()
	if len(combos) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "parameter grid is empty")
	}

	type job struct {
		index  int
		params map[string]any
	}
	jobs := make(chan job)
	results := make([]ComboResult, len(combos))

	workers := o.workers
	if workers > len(combos) {
		workers = len(combos)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = o.runCombo(cfg, j.params)
			}
		}()
	}
	for i, combo := range combos {
		jobs <- job{index: i, params: combo}
	}
	close(jobs)
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		if results[i].Err != nil {
			return false
		}
		return o.objective(results[i].Stats) > o.objective(results[j].Stats)
	})
	return results, nil
}

func (o *Optimizer) runCombo(cfg config.BacktestConfig, params map[string]any) ComboResult {
	overlay := cfg
	overlay.Params = make(map[string]any, len(cfg.Params)+len(params))
	for key, value := range cfg.Params {
		overlay.Params[key] = value
	}
	for key, value := range params {
		overlay.Params[key] = value
	}

	runner := backtest.NewRunner(o.source, o.logger)
	result, err := runner.Run(overlay)
	if err != nil {
		o.logger.Warn("grid combination failed",
			zap.Any("params", params), zap.Error(err))
		return ComboResult{Params: params, Err: err}
	}
	return ComboResult{Params: params, Stats: result.Stats}
}
