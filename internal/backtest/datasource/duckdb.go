package datasource

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/ensemble-backtest/internal/logger"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

const createPriceTableSQL = `
CREATE TABLE IF NOT EXISTS daily_price (
	symbol VARCHAR NOT NULL,
	date TIMESTAMP NOT NULL,
	open DOUBLE NOT NULL,
	high DOUBLE NOT NULL,
	low DOUBLE NOT NULL,
	close DOUBLE NOT NULL,
	volume DOUBLE NOT NULL,
	UNIQUE (symbol, date)
);
`

// DuckDBDataSource stores daily bars in a DuckDB database, either
// file-backed or in-memory when path is empty.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
}

func NewDuckDBDataSource(path string, log *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb database", err)
	}
	if _, err := db.Exec(createPriceTableSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create price table", err)
	}
	return &DuckDBDataSource{db: db, logger: log}, nil
}

// InsertBars writes bars for a symbol inside a single transaction.
func (d *DuckDBDataSource) InsertBars(symbol string, bars []types.Bar) error {
	tx, err := d.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	builder := sq.Insert("daily_price").
		Columns("symbol", "date", "open", "high", "low", "close", "volume")
	for _, bar := range bars {
		builder = builder.Values(symbol, bar.Time, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build insert query", err)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to insert bars for %s", symbol)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit bars", err)
	}
	return nil
}

func (d *DuckDBDataSource) GetHistory(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	builder := sq.Select("date", "open", "high", "low", "close", "volume").
		From("daily_price").
		Where(sq.Eq{"symbol": symbol}).
		OrderBy("date ASC")
	if start.IsSome() {
		builder = builder.Where(sq.GtOrEq{"date": start.Unwrap()})
	}
	if end.IsSome() {
		builder = builder.Where(sq.LtOrEq{"date": end.Unwrap()})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build history query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query history for %s", symbol)
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		var bar types.Bar
		if err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err)
	}
	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no history found for %s", symbol)
	}
	return bars, nil
}

func (d *DuckDBDataSource) Symbols() ([]string, error) {
	query, args, err := sq.Select("DISTINCT symbol").
		From("daily_price").
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build symbols query", err)
	}
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate symbols", err)
	}
	return symbols, nil
}

func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
