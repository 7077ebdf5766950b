package metrics

import (
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

// BuyAndHold invests the full capital at the first close and holds to
// the last bar. Shares are fractional; this is a comparator, not a
// tradable strategy.
func BuyAndHold(bars []types.Bar, initialCapital float64) (types.BenchmarkResult, error) {
	if len(bars) == 0 {
		return types.BenchmarkResult{}, errors.New(errors.ErrCodeInsufficientData, "buy-and-hold benchmark needs at least one bar")
	}
	if bars[0].Close <= 0 {
		return types.BenchmarkResult{}, errors.New(errors.ErrCodeInvalidParameter, "buy-and-hold benchmark needs a positive first close")
	}

	shares := initialCapital / bars[0].Close
	equities := make([]float64, len(bars))
	for i, bar := range bars {
		equities[i] = shares * bar.Close
	}
	return types.BenchmarkResult{
		TotalReturn:   percentChange(initialCapital, equities[len(equities)-1]),
		MaxDrawdown:   maxDrawdown(equities),
		TotalInvested: initialCapital,
	}, nil
}

// DollarCostAverage buys a fixed amount at the first trading day of
// each calendar month, fractional shares allowed. Return is measured
// against the total contributed, and drawdown over the growing
// position's market value.
func DollarCostAverage(bars []types.Bar, monthlyAmount float64) (types.BenchmarkResult, error) {
	if len(bars) == 0 {
		return types.BenchmarkResult{}, errors.New(errors.ErrCodeInsufficientData, "dca benchmark needs at least one bar")
	}
	if monthlyAmount <= 0 {
		return types.BenchmarkResult{}, errors.New(errors.ErrCodeInvalidParameter, "dca benchmark needs a positive monthly amount")
	}

	var shares, invested float64
	lastMonth := -1
	lastYear := -1
	values := make([]float64, len(bars))
	for i, bar := range bars {
		month := int(bar.Time.Month())
		year := bar.Time.Year()
		if (month != lastMonth || year != lastYear) && bar.Close > 0 {
			shares += monthlyAmount / bar.Close
			invested += monthlyAmount
			lastMonth = month
			lastYear = year
		}
		values[i] = shares * bar.Close
	}
	if invested == 0 {
		return types.BenchmarkResult{}, errors.New(errors.ErrCodeInsufficientData, "dca benchmark made no purchases")
	}
	return types.BenchmarkResult{
		TotalReturn:   percentChange(invested, values[len(values)-1]),
		MaxDrawdown:   maxDrawdown(values),
		TotalInvested: invested,
	}, nil
}
