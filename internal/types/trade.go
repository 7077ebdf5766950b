package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents a holding owned exclusively by the portfolio for
// its duration. It is created on admission and destroyed on exit, when
// it becomes a Trade ledger entry.
type Position struct {
	Symbol     string    `csv:"symbol"`
	Shares     int64     `csv:"shares"`
	EntryPrice float64   `csv:"entry_price"`
	EntryTime  time.Time `csv:"entry_time"`
	// LastPrice is the most recent known close, carried forward on days
	// the instrument has no bar.
	LastPrice float64 `csv:"last_price"`
	// StopPrice is the ATR stop level, zero when stops are disabled.
	StopPrice float64 `csv:"stop_price"`
}

// MarketValue returns shares times the last marked price.
func (p *Position) MarketValue() float64 {
	return float64(p.Shares) * p.LastPrice
}

// Trade is an immutable ledger entry created when a position exits.
type Trade struct {
	Symbol      string    `csv:"symbol" yaml:"symbol"`
	EntryTime   time.Time `csv:"entry_time" yaml:"entry_time"`
	ExitTime    time.Time `csv:"exit_time" yaml:"exit_time"`
	EntryPrice  float64   `csv:"entry_price" yaml:"entry_price"`
	ExitPrice   float64   `csv:"exit_price" yaml:"exit_price"`
	Shares      int64     `csv:"shares" yaml:"shares"`
	Return      float64   `csv:"return" yaml:"return"`
	Profit      float64   `csv:"profit" yaml:"profit"`
	HoldingDays int       `csv:"holding_days" yaml:"holding_days"`
	Note        string    `csv:"note" yaml:"note"`
}

// NewTrade builds a ledger entry, computing realized return and profit.
// Profit goes through decimal to avoid float drift accumulating across
// a long ledger.
func NewTrade(symbol string, entryTime, exitTime time.Time, entryPrice, exitPrice float64, shares int64, note string) Trade {
	profitDec := decimal.NewFromFloat(exitPrice).
		Sub(decimal.NewFromFloat(entryPrice)).
		Mul(decimal.NewFromInt(shares))
	profit, _ := profitDec.Float64()

	ret := 0.0
	if entryPrice != 0 {
		ret = (exitPrice - entryPrice) / entryPrice
	}

	return Trade{
		Symbol:      symbol,
		EntryTime:   entryTime,
		ExitTime:    exitTime,
		EntryPrice:  entryPrice,
		ExitPrice:   exitPrice,
		Shares:      shares,
		Return:      ret,
		Profit:      profit,
		HoldingDays: int(exitTime.Sub(entryTime).Hours() / 24),
		Note:        note,
	}
}

// EquityPoint is one day of the portfolio equity curve.
type EquityPoint struct {
	Time   time.Time `csv:"time" yaml:"time"`
	Equity float64   `csv:"equity" yaml:"equity"`
}
