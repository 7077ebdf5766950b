// Package engine runs the portfolio simulation over pre-computed
// candidate rows. Each trading day executes in a fixed order: mark
// open positions to market, process exits, process entries, record
// equity. Entries never precede exits and a day's trades settle
// against the equity marked at that day's close.
package engine

import (
	"math"
	"sort"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/logger"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

// Exit reasons recorded on trade ledger entries.
const (
	ExitReasonSignal  = "sell_signal"
	ExitReasonStop    = "stop_loss"
	ExitReasonEndOpen = "open_at_end"
)

// Result is the raw output of a simulation, consumed by the metrics
// package.
type Result struct {
	InitialCapital float64
	EquityCurve    []types.EquityPoint
	Trades         []types.Trade
	// DailyOpenPositions holds the open position count after each day,
	// aligned with EquityCurve. Used for the exposure statistic.
	DailyOpenPositions []int
}

// PortfolioEngine walks the merged calendar and applies the admission
// and exit rules to a single portfolio.
type PortfolioEngine struct {
	ctx          config.Context
	logger       *logger.Logger
	showProgress bool
}

func NewPortfolioEngine(ctx config.Context, log *logger.Logger) *PortfolioEngine {
	return &PortfolioEngine{ctx: ctx, logger: log}
}

// SetShowProgress toggles the terminal progress bar. Off by default so
// tests and the optimizer stay quiet.
func (e *PortfolioEngine) SetShowProgress(show bool) {
	e.showProgress = show
}

// Run simulates the portfolio across every date in market.
func (e *PortfolioEngine) Run(market *MarketData) (*Result, error) {
	if len(market.Dates) == 0 {
		return nil, errors.New(errors.ErrCodeNoCandidates, "market data has no trading dates")
	}

	initialCapital := e.ctx.Float("initial_capital", 100000)
	maxPositions := e.ctx.Int("max_positions", 4)
	useATRStop := e.ctx.Bool("use_atr_stop", false)
	stopMultiple := e.ctx.Float("stop_loss_atr", 2.0)
	sizeRounding := e.ctx.Bool("size_rounding", false)

	portfolio := NewPortfolio(initialCapital, maxPositions)
	result := &Result{InitialCapital: initialCapital}

	var bar *progressbar.ProgressBar
	if e.showProgress {
		bar = progressbar.Default(int64(len(market.Dates)), "backtesting")
	}

	for _, date := range market.Dates {
		candidates := market.Candidates(date)

		prices := make(map[string]float64, len(candidates))
		for _, cand := range candidates {
			prices[cand.Symbol] = cand.Close
		}
		portfolio.MarkToMarket(prices)

		exitedToday := make(map[string]bool)
		for _, cand := range candidates {
			pos, held := portfolio.Position(cand.Symbol)
			if !held {
				continue
			}
			if useATRStop && pos.StopPrice > 0 && cand.Low <= pos.StopPrice {
				if err := portfolio.Close(cand.Symbol, pos.StopPrice, date, ExitReasonStop); err != nil {
					return nil, err
				}
				exitedToday[cand.Symbol] = true
				continue
			}
			if cand.Sell {
				if err := portfolio.Close(cand.Symbol, cand.Close, date, ExitReasonSignal); err != nil {
					return nil, err
				}
				exitedToday[cand.Symbol] = true
			}
		}

		entries := make([]DayCandidate, 0, len(candidates))
		for _, cand := range candidates {
			if cand.Buy && !portfolio.Held(cand.Symbol) && !exitedToday[cand.Symbol] {
				entries = append(entries, cand)
			}
		}
		// Rank by relative strength, strongest first. The slice arrives
		// sorted by symbol, so equal strength falls back to symbol order.
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].RS > entries[j].RS
		})
		for _, cand := range entries {
			if !portfolio.CanOpen() {
				break
			}
			shares := portfolio.SizePosition(cand.Close, sizeRounding)
			if shares <= 0 {
				continue
			}
			stopPrice := 0.0
			if useATRStop && !math.IsNaN(cand.ATR) {
				stopPrice = cand.Close - stopMultiple*cand.ATR
			}
			if err := portfolio.Open(cand.Symbol, shares, cand.Close, date, stopPrice); err != nil {
				return nil, err
			}
			e.logger.Debug("opened position",
				zap.String("symbol", cand.Symbol),
				zap.Time("date", date),
				zap.Int64("shares", shares),
				zap.Float64("price", cand.Close),
				zap.Float64("rs", cand.RS))
		}

		if portfolio.Cash() < 0 {
			return nil, errors.Newf(errors.ErrCodeInvariantViolation,
				"cash went negative on %s", date.Format("2006-01-02"))
		}
		if portfolio.OpenPositions() > maxPositions {
			return nil, errors.Newf(errors.ErrCodeInvariantViolation,
				"%d positions open with capacity %d on %s",
				portfolio.OpenPositions(), maxPositions, date.Format("2006-01-02"))
		}

		portfolio.Record(date)
		result.DailyOpenPositions = append(result.DailyOpenPositions, portfolio.OpenPositions())

		if bar != nil {
			bar.Add(1)
		}
	}

	// Positions still open at the end are closed at their last marked
	// price so the ledger accounts for every admitted entry.
	lastDate := market.Dates[len(market.Dates)-1]
	for _, symbol := range portfolio.openSymbols() {
		pos, _ := portfolio.Position(symbol)
		if err := portfolio.Close(symbol, pos.LastPrice, lastDate, ExitReasonEndOpen); err != nil {
			return nil, err
		}
	}

	result.EquityCurve = portfolio.EquityCurve()
	result.Trades = portfolio.Trades()
	return result, nil
}
