package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BenchmarkResult holds a passive comparator computed from the raw
// price series, never from the strategy's equity curve.
type BenchmarkResult struct {
	// Total return in percent.
	TotalReturn float64 `yaml:"total_return"`
	// Maximum drawdown in percent, always <= 0.
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// TotalInvested is the cash put in (equals initial capital for
	// buy-and-hold, the sum of contributions for DCA).
	TotalInvested float64 `yaml:"total_invested"`
}

// PerformanceStats is the flat mapping of named statistics a backtest
// run always produces. Percentage units have the x100 applied exactly
// once. Degenerate runs (no trades, zero volatility) report defined
// zero defaults rather than raising.
type PerformanceStats struct {
	// ID identifies a persisted run. Empty until the run is logged.
	ID string `yaml:"id"`
	// Timestamp is when the run was logged.
	Timestamp time.Time `yaml:"timestamp"`

	InitialCapital float64 `yaml:"initial_capital"`
	FinalEquity    float64 `yaml:"final_equity"`

	// Return and risk, percent units.
	TotalReturn float64 `yaml:"total_return"`
	CAGR        float64 `yaml:"cagr"`
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// Volatility is annualized stdev of daily simple returns.
	Volatility float64 `yaml:"volatility"`
	Sharpe     float64 `yaml:"sharpe"`
	Sortino    float64 `yaml:"sortino"`
	Calmar     float64 `yaml:"calmar"`

	// Trade quality.
	TotalTrades  int     `yaml:"total_trades"`
	WinRate      float64 `yaml:"win_rate"`
	ProfitFactor float64 `yaml:"profit_factor"`
	AvgWin       float64 `yaml:"avg_win"`
	AvgLoss      float64 `yaml:"avg_loss"`
	SQN          float64 `yaml:"sqn"`
	AvgHolding   float64 `yaml:"avg_holding_days"`
	// Exposure is the percentage of days with at least one open position.
	Exposure float64 `yaml:"exposure"`

	// YearlyReturns maps calendar year to its return in percent.
	YearlyReturns map[string]float64 `yaml:"yearly_returns"`

	BuyAndHold BenchmarkResult `yaml:"buy_and_hold"`
	DCA        BenchmarkResult `yaml:"dca"`
}

// Flatten converts the stats into a flat string/number mapping for the
// result log collaborator. Yearly returns are keyed year_<yyyy>.
func (s *PerformanceStats) Flatten() map[string]any {
	row := map[string]any{
		"run_id":            s.ID,
		"timestamp":         s.Timestamp.Format(time.RFC3339),
		"initial_capital":   s.InitialCapital,
		"final_equity":      s.FinalEquity,
		"total_return":      s.TotalReturn,
		"cagr":              s.CAGR,
		"max_drawdown":      s.MaxDrawdown,
		"volatility":        s.Volatility,
		"sharpe":            s.Sharpe,
		"sortino":           s.Sortino,
		"calmar":            s.Calmar,
		"total_trades":      s.TotalTrades,
		"win_rate":          s.WinRate,
		"profit_factor":     s.ProfitFactor,
		"avg_win":           s.AvgWin,
		"avg_loss":          s.AvgLoss,
		"sqn":               s.SQN,
		"avg_holding_days":  s.AvgHolding,
		"exposure":          s.Exposure,
		"buy_and_hold_return": s.BuyAndHold.TotalReturn,
		"buy_and_hold_mdd":    s.BuyAndHold.MaxDrawdown,
		"dca_return":          s.DCA.TotalReturn,
		"dca_mdd":             s.DCA.MaxDrawdown,
		"dca_total_invested":  s.DCA.TotalInvested,
	}

	for year, ret := range s.YearlyReturns {
		row[fmt.Sprintf("year_%s", year)] = ret
	}

	return row
}

// WritePerformanceStats serializes stats to a YAML file.
func WritePerformanceStats(path string, stats PerformanceStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal performance stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write performance stats to file: %w", err)
	}

	return nil
}
