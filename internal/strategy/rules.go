package strategy

import (
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/indicator"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// Rule is the common surface of the stateful strategies. The FSM in
// Generate asks Ready first; an index where a required indicator is
// still undefined is skipped without a state change, which keeps the
// warm-up window free of spurious trades.
type Rule interface {
	Name() Name
	// Ready reports whether every indicator value the rule needs at
	// index i is defined.
	Ready(s *types.Series, i int) bool
	// Entry evaluates the enter-long condition at index i.
	Entry(s *types.Series, i int) bool
	// Exit evaluates the leave-long condition at index i.
	Exit(s *types.Series, i int) bool
}

// ruleFor returns the FSM rule for a strategy, or nil for the
// flag-style strategies that carry no position state.
func ruleFor(name Name, ctx config.Context) Rule {
	switch name {
	case Turtle:
		return &turtleRule{}
	case RSI:
		return &rsiRule{
			oversold:   ctx.Float("rsi_oversold", 30),
			overbought: ctx.Float("rsi_overbought", 70),
		}
	case SMA:
		return &crossoverRule{name: SMA, short: indicator.ColSMAShort, long: indicator.ColSMALong}
	case BBands:
		return &bbandsRule{}
	case MACD:
		return &crossoverRule{name: MACD, short: indicator.ColMACD, long: indicator.ColMACDSig}
	case BBS:
		return &bbsRule{}
	case DEMA:
		return &crossoverRule{name: DEMA, short: indicator.ColDEMAShort, long: indicator.ColDEMALong}
	default:
		return nil
	}
}

// turtleRule enters on a close above the shifted entry channel high and
// exits on a close below the shifted exit channel low.
type turtleRule struct{}

func (r *turtleRule) Name() Name { return Turtle }

func (r *turtleRule) Ready(s *types.Series, i int) bool {
	return s.Defined(indicator.ColEntryHigh, i) && s.Defined(indicator.ColExitLow, i)
}

func (r *turtleRule) Entry(s *types.Series, i int) bool {
	return s.Bars[i].Close > s.Value(indicator.ColEntryHigh, i)
}

func (r *turtleRule) Exit(s *types.Series, i int) bool {
	return s.Bars[i].Close < s.Value(indicator.ColExitLow, i)
}

// rsiRule enters in the oversold zone and exits in the overbought zone.
type rsiRule struct {
	oversold   float64
	overbought float64
}

func (r *rsiRule) Name() Name { return RSI }

func (r *rsiRule) Ready(s *types.Series, i int) bool {
	return s.Defined(indicator.ColRSI, i)
}

func (r *rsiRule) Entry(s *types.Series, i int) bool {
	return s.Value(indicator.ColRSI, i) < r.oversold
}

func (r *rsiRule) Exit(s *types.Series, i int) bool {
	return s.Value(indicator.ColRSI, i) > r.overbought
}

// crossoverRule is the shared golden-cross shape used by the SMA, DEMA
// and MACD strategies: enter when the short line crosses above the long
// line, exit on the reverse cross.
type crossoverRule struct {
	name  Name
	short string
	long  string
}

func (r *crossoverRule) Name() Name { return r.name }

func (r *crossoverRule) Ready(s *types.Series, i int) bool {
	return i > 0 &&
		s.Defined(r.short, i-1) && s.Defined(r.long, i-1) &&
		s.Defined(r.short, i) && s.Defined(r.long, i)
}

func (r *crossoverRule) Entry(s *types.Series, i int) bool {
	return s.Value(r.short, i-1) <= s.Value(r.long, i-1) &&
		s.Value(r.short, i) > s.Value(r.long, i)
}

func (r *crossoverRule) Exit(s *types.Series, i int) bool {
	return s.Value(r.short, i-1) >= s.Value(r.long, i-1) &&
		s.Value(r.short, i) < s.Value(r.long, i)
}

// bbandsRule is mean reversion: enter when the day's low touches the
// lower band, exit when the day's high touches the upper band.
type bbandsRule struct{}

func (r *bbandsRule) Name() Name { return BBands }

func (r *bbandsRule) Ready(s *types.Series, i int) bool {
	return s.Defined(indicator.ColBBLower, i) && s.Defined(indicator.ColBBUpper, i)
}

func (r *bbandsRule) Entry(s *types.Series, i int) bool {
	return s.Bars[i].Low < s.Value(indicator.ColBBLower, i)
}

func (r *bbandsRule) Exit(s *types.Series, i int) bool {
	return s.Bars[i].High > s.Value(indicator.ColBBUpper, i)
}

// bbsRule is the volatility squeeze breakout: enter when the bandwidth
// sits at its rolling minimum while the close clears the upper band,
// exit on a midline breach.
type bbsRule struct{}

func (r *bbsRule) Name() Name { return BBS }

func (r *bbsRule) Ready(s *types.Series, i int) bool {
	return s.Defined(indicator.ColBBWidth, i) &&
		s.Defined(indicator.ColBBWMinLow, i) &&
		s.Defined(indicator.ColBBUpper, i) &&
		s.Defined(indicator.ColBBMid, i)
}

func (r *bbsRule) Entry(s *types.Series, i int) bool {
	isSqueeze := s.Value(indicator.ColBBWidth, i) <= s.Value(indicator.ColBBWMinLow, i)
	return isSqueeze && s.Bars[i].Close > s.Value(indicator.ColBBUpper, i)
}

func (r *bbsRule) Exit(s *types.Series, i int) bool {
	return s.Bars[i].Close < s.Value(indicator.ColBBMid, i)
}
