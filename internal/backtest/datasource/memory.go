package datasource

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/ensemble-backtest/internal/types"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

// MemoryDataSource serves bars from memory. Used by tests and by the
// optimizer to avoid re-reading the database per combination.
type MemoryDataSource struct {
	bars map[string][]types.Bar
}

func NewMemoryDataSource() *MemoryDataSource {
	return &MemoryDataSource{bars: make(map[string][]types.Bar)}
}

// SetBars replaces the history for a symbol. Bars are stored sorted by
// date ascending.
func (m *MemoryDataSource) SetBars(symbol string, bars []types.Bar) {
	sorted := make([]types.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	m.bars[symbol] = sorted
}

func (m *MemoryDataSource) GetHistory(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	all, ok := m.bars[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no history found for %s", symbol)
	}
	var bars []types.Bar
	for _, bar := range all {
		if start.IsSome() && bar.Time.Before(start.Unwrap()) {
			continue
		}
		if end.IsSome() && bar.Time.After(end.Unwrap()) {
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no history found for %s", symbol)
	}
	return bars, nil
}

func (m *MemoryDataSource) Symbols() ([]string, error) {
	symbols := make([]string, 0, len(m.bars))
	for symbol := range m.bars {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (m *MemoryDataSource) Close() error {
	return nil
}
