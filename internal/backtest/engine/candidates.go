package engine

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/indicator"
	"github.com/rxtech-lab/ensemble-backtest/internal/logger"
	"github.com/rxtech-lab/ensemble-backtest/internal/strategy"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

// DayCandidate is one instrument's pre-computed state for one trading
// day. The daily loop consumes these rows and never touches the raw
// series again.
type DayCandidate struct {
	Symbol string
	Close  float64
	Low    float64
	// ATR is NaN inside the indicator warm-up window.
	ATR   float64
	Score float64
	RS    float64
	Buy   bool
	Sell  bool
}

// MarketData is the merged calendar the daily loop walks: the sorted
// union of every instrument's trading dates, with per-day candidate
// rows sorted by symbol.
type MarketData struct {
	Dates []time.Time
	days  map[int64][]DayCandidate
}

// Candidates returns the day's rows, or nil when no instrument traded.
func (m *MarketData) Candidates(date time.Time) []DayCandidate {
	return m.days[date.Unix()]
}

// BuildCandidates runs the full signal pipeline for every instrument
// and merges the results into a single calendar. Instruments are
// processed concurrently on cloned series; an instrument that fails is
// logged and excluded without aborting the rest.
func BuildCandidates(seriesSet []*types.Series, benchmark *types.Series, ctx config.Context, log *logger.Logger) (*MarketData, error) {
	type result struct {
		series *types.Series
		err    error
	}

	jobs := make(chan *types.Series)
	results := make(chan result, len(seriesSet))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(seriesSet) {
		workers = len(seriesSet)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for series := range jobs {
				err := runPipeline(series, benchmark, ctx)
				results <- result{series: series, err: err}
			}
		}()
	}

	go func() {
		for _, series := range seriesSet {
			jobs <- series.Clone()
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var processed []*types.Series
	for res := range results {
		if res.err != nil {
			log.Warn("excluding instrument from backtest",
				zap.String("symbol", res.series.Symbol),
				zap.Error(res.err))
			continue
		}
		processed = append(processed, res.series)
	}
	if len(processed) == 0 {
		return nil, errors.New(errors.ErrCodeNoCandidates, "no instrument produced usable signals")
	}

	return mergeCandidates(processed), nil
}

// runPipeline computes indicators, per-channel signals, relative
// strength against the benchmark and the ensemble columns for a single
// instrument.
func runPipeline(series *types.Series, benchmark *types.Series, ctx config.Context) error {
	required := requiredBars(ctx)
	if series.Len() < required {
		return errors.NewInsufficientDataErrorf(required, series.Len(), series.Symbol,
			"%s has %d bars, pipeline needs %d", series.Symbol, series.Len(), required)
	}
	if err := indicator.ApplyAll(series, ctx); err != nil {
		return err
	}
	if err := strategy.GenerateAll(series, ctx); err != nil {
		return err
	}
	lookback := ctx.Int("rs_lookback", 120)
	if err := strategy.ApplyRelativeStrength(series, benchmark, lookback); err != nil {
		return err
	}
	return strategy.ApplyEnsemble(series, ctx)
}

// requiredBars is the longest warm-up any indicator needs under ctx.
// Shorter series can never produce an entry signal, so they are
// excluded up front.
func requiredBars(ctx config.Context) int {
	required := 0
	for _, ind := range indicator.All() {
		if n := ind.MinBars(ctx); n > required {
			required = n
		}
	}
	return required
}

func mergeCandidates(processed []*types.Series) *MarketData {
	market := &MarketData{days: make(map[int64][]DayCandidate)}

	seen := make(map[int64]bool)
	for _, series := range processed {
		for i, bar := range series.Bars {
			key := bar.Time.Unix()
			market.days[key] = append(market.days[key], DayCandidate{
				Symbol: series.Symbol,
				Close:  bar.Close,
				Low:    bar.Low,
				ATR:    series.Value(indicator.ColATR, i),
				Score:  series.Value(strategy.ColScore, i),
				RS:     series.Value(strategy.ColRS, i),
				Buy:    series.Value(strategy.ColBuySignal, i) == 1,
				Sell:   series.Value(strategy.ColSellSignal, i) == 1,
			})
			if !seen[key] {
				seen[key] = true
				market.Dates = append(market.Dates, bar.Time)
			}
		}
	}

	sort.Slice(market.Dates, func(i, j int) bool {
		return market.Dates[i].Before(market.Dates[j])
	})
	for _, rows := range market.days {
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].Symbol < rows[j].Symbol
		})
	}
	return market
}
