// Package metrics derives performance statistics from a finished
// simulation. Every percentage statistic carries the x100 exactly once
// and degenerate inputs (no trades, zero volatility, single-day runs)
// produce zero defaults instead of errors.
package metrics

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/ensemble-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

const tradingDaysPerYear = 252

// Compute derives the full statistic set from a simulation result.
// The mapping is pure: the same result always produces the same
// statistics. Run identity (ID, timestamp) and benchmark fields are
// left zero; the caller attaches them.
func Compute(result *engine.Result) *types.PerformanceStats {
	stats := &types.PerformanceStats{
		InitialCapital: result.InitialCapital,
		YearlyReturns:  make(map[string]float64),
	}
	if len(result.EquityCurve) == 0 {
		stats.FinalEquity = result.InitialCapital
		return stats
	}

	curve := result.EquityCurve
	final := curve[len(curve)-1].Equity
	stats.FinalEquity = final
	stats.TotalReturn = percentChange(result.InitialCapital, final)

	days := curve[len(curve)-1].Time.Sub(curve[0].Time).Hours() / 24
	stats.CAGR = cagr(result.InitialCapital, final, days)

	equities := make([]float64, len(curve))
	for i, point := range curve {
		equities[i] = point.Equity
	}
	stats.MaxDrawdown = maxDrawdown(equities)

	daily := dailyReturns(equities)
	stats.Volatility = stdev(daily) * math.Sqrt(tradingDaysPerYear) * 100
	if stats.Volatility > 0 {
		stats.Sharpe = stats.CAGR / stats.Volatility
	}
	downside := stdev(negativeOnly(daily)) * math.Sqrt(tradingDaysPerYear) * 100
	if downside > 0 {
		stats.Sortino = stats.CAGR / downside
	}
	if stats.MaxDrawdown < 0 {
		stats.Calmar = stats.CAGR / math.Abs(stats.MaxDrawdown)
	}

	applyTradeStats(stats, result.Trades)
	stats.Exposure = exposure(result.DailyOpenPositions)
	stats.YearlyReturns = yearlyReturns(curve, result.InitialCapital)
	return stats
}

func percentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to/from - 1) * 100
}

// cagr uses calendar days over 365 so partial years annualize the way
// a date-difference based report would.
func cagr(initial, final, days float64) float64 {
	if days <= 0 || initial <= 0 || final <= 0 {
		return 0
	}
	years := days / 365
	return (math.Pow(final/initial, 1/years) - 1) * 100
}

// maxDrawdown returns the deepest peak-to-trough decline in percent,
// always <= 0.
func maxDrawdown(equities []float64) float64 {
	worst := 0.0
	peak := math.Inf(-1)
	for _, equity := range equities {
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (equity/peak - 1) * 100
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

func dailyReturns(equities []float64) []float64 {
	if len(equities) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equities)-1)
	for i := 1; i < len(equities); i++ {
		if equities[i-1] != 0 {
			returns = append(returns, equities[i]/equities[i-1]-1)
		}
	}
	return returns
}

func negativeOnly(returns []float64) []float64 {
	var neg []float64
	for _, r := range returns {
		if r < 0 {
			neg = append(neg, r)
		}
	}
	return neg
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdev is the sample standard deviation, zero for fewer than two
// values.
func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func applyTradeStats(stats *types.PerformanceStats, trades []types.Trade) {
	stats.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	var wins, losses []float64
	var grossProfit, grossLoss, holdingSum float64
	returns := make([]float64, len(trades))
	for i, trade := range trades {
		returns[i] = trade.Return
		holdingSum += float64(trade.HoldingDays)
		if trade.Profit > 0 {
			wins = append(wins, trade.Return)
			grossProfit += trade.Profit
		} else if trade.Profit < 0 {
			losses = append(losses, trade.Return)
			grossLoss += -trade.Profit
		}
	}

	stats.WinRate = float64(len(wins)) / float64(len(trades)) * 100
	stats.ProfitFactor = profitFactor(grossProfit, grossLoss)
	stats.AvgWin = mean(wins) * 100
	stats.AvgLoss = mean(losses) * 100
	stats.AvgHolding = holdingSum / float64(len(trades))

	if len(trades) >= 2 {
		if sd := stdev(returns); sd > 0 {
			stats.SQN = math.Sqrt(float64(len(trades))) * mean(returns) / sd
		}
	}
}

func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return grossProfit
		}
		return 0
	}
	return grossProfit / grossLoss
}

func exposure(dailyOpen []int) float64 {
	if len(dailyOpen) == 0 {
		return 0
	}
	invested := 0
	for _, n := range dailyOpen {
		if n > 0 {
			invested++
		}
	}
	return float64(invested) / float64(len(dailyOpen)) * 100
}

// yearlyReturns maps each calendar year to the change of its last
// recorded equity against the previous year's last equity. The first
// year is measured against initial capital.
func yearlyReturns(curve []types.EquityPoint, initialCapital float64) map[string]float64 {
	returns := make(map[string]float64)
	baseline := initialCapital
	currentYear := curve[0].Time.Year()
	lastEquity := curve[0].Equity
	for _, point := range curve {
		if point.Time.Year() != currentYear {
			returns[fmt.Sprintf("%d", currentYear)] = percentChange(baseline, lastEquity)
			baseline = lastEquity
			currentYear = point.Time.Year()
		}
		lastEquity = point.Equity
	}
	returns[fmt.Sprintf("%d", currentYear)] = percentChange(baseline, lastEquity)
	return returns
}
