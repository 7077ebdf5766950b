package config

import (
	"sort"
)

// Context is an immutable mapping of named strategy parameters passed
// by reference through every stage. A stage reads a key through a
// typed getter and supplies its documented default inline; absent keys
// never fail, unknown keys are ignored.
//
// Commonly used keys and their defaults:
//
//	entry_period        20    turtle entry channel lookback
//	exit_period         10    turtle exit channel lookback
//	atr_period          20    ATR smoothing period
//	rsi_period          14    RSI period
//	rsi_oversold        30    RSI entry threshold
//	rsi_overbought      70    RSI exit threshold
//	sma_short_period    50    SMA crossover short leg
//	sma_long_period     200   SMA crossover long leg
//	dema_short_period   20    DEMA crossover short leg
//	dema_long_period    50    DEMA crossover long leg
//	bbands_period       20    Bollinger band period
//	bbands_std_dev      2.0   Bollinger band width
//	bbs_squeeze_period  120   bandwidth rolling-minimum lookback
//	macd_fast_period    12
//	macd_slow_period    26
//	macd_signal_period  9
//	mfi_period          14
//	obv_sma_period      20
//	vol_spike_period    20
//	rs_lookback         120   relative strength momentum window
//	score_threshold     1.0   ensemble buy score threshold
//	<strategy>_weight   1.0   ensemble weight (0.5 for obv/mfi/vol_spike)
//	rs_weight           0.0   relative strength ensemble weight
//	initial_capital     100000.0
//	max_positions       4
//	use_atr_stop        false enable ATR stop-loss exits
//	stop_loss_atr       2.0   stop distance in ATR multiples
//	size_rounding       false round share count instead of truncating
type Context struct {
	params map[string]any
}

// NewContext builds a Context from a parameter map. The map is copied;
// later mutation of the argument does not leak in.
func NewContext(params map[string]any) Context {
	copied := make(map[string]any, len(params))
	for key, value := range params {
		copied[key] = value
	}
	return Context{params: copied}
}

// With returns a copy of the context with one key replaced.
func (c Context) With(key string, value any) Context {
	copied := make(map[string]any, len(c.params)+1)
	for k, v := range c.params {
		copied[k] = v
	}
	copied[key] = value
	return Context{params: copied}
}

// Int reads an integer parameter, applying def when the key is absent
// or not numeric. YAML and JSON decoding may surface numbers as int,
// int64 or float64; all are accepted.
func (c Context) Int(key string, def int) int {
	switch v := c.params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Float reads a float parameter, applying def when the key is absent or
// not numeric.
func (c Context) Float(key string, def float64) float64 {
	switch v := c.params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// String reads a string parameter, applying def when the key is absent.
func (c Context) String(key string, def string) string {
	if v, ok := c.params[key].(string); ok {
		return v
	}
	return def
}

// Bool reads a boolean parameter, applying def when the key is absent.
func (c Context) Bool(key string, def bool) bool {
	if v, ok := c.params[key].(bool); ok {
		return v
	}
	return def
}

// Has reports whether a key is present.
func (c Context) Has(key string) bool {
	_, ok := c.params[key]
	return ok
}

// Keys returns all parameter names in sorted order.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c.params))
	for key := range c.params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Flatten returns a copy of the underlying mapping, for the result log.
func (c Context) Flatten() map[string]any {
	copied := make(map[string]any, len(c.params))
	for key, value := range c.params {
		copied[key] = value
	}
	return copied
}
