package strategy

import (
	"time"

	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// ColRS is the relative strength column name.
const ColRS = "rs"

// RSSentinel is assigned to every date where relative strength cannot
// be computed (warm-up, no benchmark overlap, or a benchmark shorter
// than the lookback). It is strictly below zero so downstream
// comparisons stay total and never need a null check.
const RSSentinel = -1.0

// ApplyRelativeStrength appends the momentum spread between the
// instrument and the benchmark: the lookback-window percent change of
// the instrument close minus that of the benchmark close, computed on
// the intersection of their dates.
func ApplyRelativeStrength(series, benchmark *types.Series, lookback int) error {
	rs := make([]float64, series.Len())
	for i := range rs {
		rs[i] = RSSentinel
	}

	if benchmark == nil || lookback <= 0 {
		return series.SetColumn(ColRS, rs)
	}

	// Align on shared dates. Both series are date-ascending, so a
	// single merge pass finds the intersection.
	type aligned struct {
		seriesIdx      int
		stockClose     float64
		benchmarkClose float64
	}
	common := make([]aligned, 0, series.Len())

	j := 0
	for i := 0; i < series.Len() && j < benchmark.Len(); i++ {
		date := series.Bars[i].Time
		for j < benchmark.Len() && benchmark.Bars[j].Time.Before(date) {
			j++
		}
		if j < benchmark.Len() && sameDay(benchmark.Bars[j].Time, date) {
			common = append(common, aligned{
				seriesIdx:      i,
				stockClose:     series.Bars[i].Close,
				benchmarkClose: benchmark.Bars[j].Close,
			})
		}
	}

	if len(common) < lookback {
		// Not enough overlap for even one spread value: constant
		// sentinel series.
		return series.SetColumn(ColRS, rs)
	}

	for k := lookback; k < len(common); k++ {
		cur := common[k]
		prev := common[k-lookback]
		if prev.stockClose == 0 || prev.benchmarkClose == 0 {
			continue
		}
		stockChange := cur.stockClose/prev.stockClose - 1
		benchmarkChange := cur.benchmarkClose/prev.benchmarkClose - 1
		rs[cur.seriesIdx] = stockChange - benchmarkChange
	}

	return series.SetColumn(ColRS, rs)
}

func sameDay(a, b time.Time) bool {
	return a.Equal(b)
}
