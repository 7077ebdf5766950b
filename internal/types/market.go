package types

import (
	"math"
	"sort"
	"time"

	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

// Bar is a single daily OHLCV record for one instrument. Bars are
// immutable once ingested.
type Bar struct {
	Time   time.Time `csv:"time" yaml:"time"`
	Open   float64   `csv:"open" yaml:"open"`
	High   float64   `csv:"high" yaml:"high"`
	Low    float64   `csv:"low" yaml:"low"`
	Close  float64   `csv:"close" yaml:"close"`
	Volume float64   `csv:"volume" yaml:"volume"`
}

// Series is a date-ascending arena of bars for one symbol plus named
// derived columns aligned by bar index. Indicator and signal stages
// append columns; they never mutate OHLCV values or reorder rows.
// math.NaN() marks a "not yet computable" cell, tested only through
// Defined.
type Series struct {
	Symbol string
	Bars   []Bar

	columns map[string][]float64
}

// NewSeries builds a Series from bars, sorting them by time ascending.
// Duplicate dates violate the (instrument, date) uniqueness invariant
// and are rejected.
func NewSeries(symbol string, bars []Bar) (*Series, error) {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time.Equal(sorted[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter,
				"duplicate bar date %s for symbol %s", sorted[i].Time.Format("2006-01-02"), symbol)
		}
	}

	return &Series{
		Symbol:  symbol,
		Bars:    sorted,
		columns: make(map[string][]float64),
	}, nil
}

// Len returns the number of bars in the series.
func (s *Series) Len() int {
	return len(s.Bars)
}

// SetColumn attaches a derived column. The column length must match the
// bar count.
func (s *Series) SetColumn(name string, values []float64) error {
	if len(values) != len(s.Bars) {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"column %s has %d values, series has %d bars", name, len(values), len(s.Bars))
	}

	if s.columns == nil {
		s.columns = make(map[string][]float64)
	}
	s.columns[name] = values

	return nil
}

// Column returns a derived column and whether it exists.
func (s *Series) Column(name string) ([]float64, bool) {
	values, ok := s.columns[name]
	return values, ok
}

// HasColumn reports whether all named columns exist.
func (s *Series) HasColumn(names ...string) bool {
	for _, name := range names {
		if _, ok := s.columns[name]; !ok {
			return false
		}
	}
	return true
}

// Value returns the column cell at index i, or NaN when the column is
// missing.
func (s *Series) Value(name string, i int) float64 {
	values, ok := s.columns[name]
	if !ok || i < 0 || i >= len(values) {
		return math.NaN()
	}
	return values[i]
}

// Defined reports whether the column cell at index i holds a computable
// value.
func (s *Series) Defined(name string, i int) bool {
	return !math.IsNaN(s.Value(name, i))
}

// NaNColumn returns a fresh column of the series length filled with the
// "not yet computable" marker.
func (s *Series) NaNColumn() []float64 {
	values := make([]float64, len(s.Bars))
	for i := range values {
		values[i] = math.NaN()
	}
	return values
}

// Clone returns a deep copy. Workers receive clones so that the
// per-instrument pipeline never shares mutable state across goroutines.
func (s *Series) Clone() *Series {
	bars := make([]Bar, len(s.Bars))
	copy(bars, s.Bars)

	columns := make(map[string][]float64, len(s.columns))
	for name, values := range s.columns {
		copied := make([]float64, len(values))
		copy(copied, values)
		columns[name] = copied
	}

	return &Series{
		Symbol:  s.Symbol,
		Bars:    bars,
		columns: columns,
	}
}

// IndexOf returns the bar index holding the given date, or -1.
func (s *Series) IndexOf(t time.Time) int {
	idx := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Time.Before(t)
	})
	if idx < len(s.Bars) && s.Bars[idx].Time.Equal(t) {
		return idx
	}
	return -1
}
