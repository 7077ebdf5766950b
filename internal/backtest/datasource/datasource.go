package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// DataSource provides per-instrument OHLCV history. Implementations
// return bars ordered by date ascending with unique (symbol, date)
// pairs.
type DataSource interface {
	// GetHistory returns the daily bars for a symbol, optionally bounded
	// by start and end dates (inclusive).
	GetHistory(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error)

	// Symbols returns every symbol the source holds data for.
	Symbols() ([]string, error)

	// Close releases underlying resources.
	Close() error
}

// GetSeries loads a symbol's history into a Series.
func GetSeries(ds DataSource, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (*types.Series, error) {
	bars, err := ds.GetHistory(symbol, start, end)
	if err != nil {
		return nil, err
	}
	return types.NewSeries(symbol, bars)
}
