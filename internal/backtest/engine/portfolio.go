package engine

import (
	"math"
	"sort"
	"time"

	"github.com/rxtech-lab/ensemble-backtest/internal/types"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

// Portfolio tracks cash, open positions and the realized trade ledger.
// All mutation goes through Open and Close so the cash and capacity
// invariants hold at every step of the daily loop.
type Portfolio struct {
	initialCapital float64
	cash           float64
	maxPositions   int
	positions      map[string]*types.Position
	trades         []types.Trade
	equityCurve    []types.EquityPoint
}

func NewPortfolio(initialCapital float64, maxPositions int) *Portfolio {
	return &Portfolio{
		initialCapital: initialCapital,
		cash:           initialCapital,
		maxPositions:   maxPositions,
		positions:      make(map[string]*types.Position),
	}
}

// MarkToMarket updates each open position with the day's close. Symbols
// absent from prices keep their last known mark.
func (p *Portfolio) MarkToMarket(prices map[string]float64) {
	for symbol, pos := range p.positions {
		if price, ok := prices[symbol]; ok {
			pos.LastPrice = price
		}
	}
}

// Equity returns cash plus the marked value of every open position.
func (p *Portfolio) Equity() float64 {
	equity := p.cash
	for _, pos := range p.positions {
		equity += pos.MarketValue()
	}
	return equity
}

func (p *Portfolio) Cash() float64 {
	return p.cash
}

func (p *Portfolio) InitialCapital() float64 {
	return p.initialCapital
}

func (p *Portfolio) OpenPositions() int {
	return len(p.positions)
}

func (p *Portfolio) CanOpen() bool {
	return len(p.positions) < p.maxPositions
}

func (p *Portfolio) Held(symbol string) bool {
	_, ok := p.positions[symbol]
	return ok
}

func (p *Portfolio) Position(symbol string) (*types.Position, bool) {
	pos, ok := p.positions[symbol]
	return pos, ok
}

// SizePosition returns how many whole shares an entry at price may buy:
// an equal split of current equity across the full capacity, clamped to
// what cash can actually cover. With round set the split is rounded to
// the nearest share instead of truncated; the cash clamp still applies.
func (p *Portfolio) SizePosition(price float64, round bool) int64 {
	if price <= 0 {
		return 0
	}
	allocation := p.Equity() / float64(p.maxPositions)
	var shares int64
	if round {
		shares = int64(math.Round(allocation / price))
	} else {
		shares = int64(math.Floor(allocation / price))
	}
	affordable := int64(math.Floor(p.cash / price))
	if shares > affordable {
		shares = affordable
	}
	if shares < 0 {
		return 0
	}
	return shares
}

// Open admits a new position. The caller sizes it first; shares must be
// positive and affordable.
func (p *Portfolio) Open(symbol string, shares int64, price float64, date time.Time, stopPrice float64) error {
	if p.Held(symbol) {
		return errors.Newf(errors.ErrCodeInvariantViolation, "position already open for %s", symbol)
	}
	if !p.CanOpen() {
		return errors.Newf(errors.ErrCodeInvariantViolation, "portfolio at capacity %d", p.maxPositions)
	}
	if shares <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "cannot open %s with %d shares", symbol, shares)
	}
	cost := float64(shares) * price
	if cost > p.cash {
		return errors.Newf(errors.ErrCodeInvariantViolation,
			"entry for %s costs %.2f with only %.2f cash", symbol, cost, p.cash)
	}
	p.cash -= cost
	p.positions[symbol] = &types.Position{
		Symbol:     symbol,
		Shares:     shares,
		EntryPrice: price,
		EntryTime:  date,
		LastPrice:  price,
		StopPrice:  stopPrice,
	}
	return nil
}

// Close exits an open position at price and appends a ledger entry.
func (p *Portfolio) Close(symbol string, price float64, date time.Time, note string) error {
	pos, ok := p.positions[symbol]
	if !ok {
		return errors.Newf(errors.ErrCodeInvariantViolation, "no open position for %s", symbol)
	}
	p.cash += float64(pos.Shares) * price
	p.trades = append(p.trades, types.NewTrade(symbol, pos.EntryTime, date, pos.EntryPrice, price, pos.Shares, note))
	delete(p.positions, symbol)
	return nil
}

// Record appends the day's closing equity to the curve.
func (p *Portfolio) Record(date time.Time) {
	p.equityCurve = append(p.equityCurve, types.EquityPoint{Time: date, Equity: p.Equity()})
}

// openSymbols returns held symbols in deterministic order.
func (p *Portfolio) openSymbols() []string {
	symbols := make([]string, 0, len(p.positions))
	for symbol := range p.positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func (p *Portfolio) Trades() []types.Trade {
	return p.trades
}

func (p *Portfolio) EquityCurve() []types.EquityPoint {
	return p.equityCurve
}
