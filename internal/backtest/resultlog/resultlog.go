// Package resultlog persists one row per backtest run in a DuckDB
// table whose schema grows with the statistics: keys never seen before
// become new columns, so older rows stay queryable next to newer ones
// with richer parameter sets.
package resultlog

import (
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/logger"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

const resultsTable = "backtest_results"

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ResultLogger appends flattened run statistics to a DuckDB file.
type ResultLogger struct {
	db     *sql.DB
	logger *logger.Logger
}

func NewResultLogger(path string, log *logger.Logger) (*ResultLogger, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultLogFailed, "failed to open result log database", err)
	}
	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run_id VARCHAR NOT NULL, timestamp VARCHAR NOT NULL)`, resultsTable)
	if _, err := db.Exec(createSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeResultLogFailed, "failed to create results table", err)
	}
	return &ResultLogger{db: db, logger: log}, nil
}

// Append writes one run's flattened statistics, extending the table
// with any columns it has not seen before.
func (r *ResultLogger) Append(row map[string]any) error {
	existing, err := r.columns()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(row))
	for key := range row {
		if !identifierPattern.MatchString(key) {
			return errors.Newf(errors.ErrCodeInvalidParameter, "invalid result column name %q", key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if existing[key] {
			continue
		}
		alterSQL := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, resultsTable, key, columnType(row[key]))
		if _, err := r.db.Exec(alterSQL); err != nil {
			return errors.Wrapf(errors.ErrCodeResultLogFailed, err, "failed to add result column %s", key)
		}
		r.logger.Debug("extended results table", zap.String("column", key))
	}

	values := make([]any, len(keys))
	for i, key := range keys {
		values[i] = row[key]
	}
	query, args, err := sq.Insert(resultsTable).Columns(keys...).Values(values...).ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultLogFailed, "failed to build result insert", err)
	}
	if _, err := r.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeResultLogFailed, "failed to insert result row", err)
	}
	return nil
}

// AppendRun logs one run: the flattened statistics plus every context
// parameter under a param_ prefix, so sweeps stay comparable across
// runs with different parameter sets. Run identity is assigned here,
// at persistence time, when the stats carry none.
func (r *ResultLogger) AppendRun(ctx config.Context, stats *types.PerformanceStats) error {
	if stats.ID == "" {
		stats.ID = uuid.New().String()
	}
	if stats.Timestamp.IsZero() {
		stats.Timestamp = time.Now().UTC()
	}
	row := stats.Flatten()
	for key, value := range ctx.Flatten() {
		row["param_"+key] = value
	}
	return r.Append(row)
}

// Rows reads back the most recent runs, newest first.
func (r *ResultLogger) Rows(limit int) ([]map[string]any, error) {
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY timestamp DESC LIMIT %d`, resultsTable, limit)
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultLogFailed, "failed to query result rows", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultLogFailed, "failed to read result columns", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeResultLogFailed, "failed to scan result row", err)
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultLogFailed, "failed to iterate result rows", err)
	}
	return out, nil
}

func (r *ResultLogger) Close() error {
	return r.db.Close()
}

// columns returns the current column set of the results table.
func (r *ResultLogger) columns() (map[string]bool, error) {
	rows, err := r.db.Query(
		`SELECT column_name FROM information_schema.columns WHERE table_name = ?`, resultsTable)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultLogFailed, "failed to inspect results table", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeResultLogFailed, "failed to scan column name", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultLogFailed, "failed to iterate column names", err)
	}
	return existing, nil
}

// columnType maps a Go value to the DuckDB column type used when the
// table grows a new column.
func columnType(value any) string {
	switch value.(type) {
	case float64, float32:
		return "DOUBLE"
	case int, int64, int32:
		return "BIGINT"
	case bool:
		return "BOOLEAN"
	default:
		return "VARCHAR"
	}
}
