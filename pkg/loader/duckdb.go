package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-series/pkg/errors"
	"github.com/rxtech-lab/argo-series/pkg/timeseries"
	"go.uber.org/zap"
)

// DuckDBLoader reads series from a parquet file exposed as the market_data view.
// The file needs time, symbol and the selected price column.
type DuckDBLoader struct {
	db     *sql.DB
	logger *zap.Logger
	sq     squirrel.StatementBuilderType
	column Column
	path   string
}

// NewDuckDBLoader opens an in-memory DuckDB database and registers path as market_data.
func NewDuckDBLoader(path string, column Column, logger *zap.Logger) (*DuckDBLoader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open DuckDB", err)
	}

	loader := &DuckDBLoader{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		column: column,
		path:   path,
	}

	if err := loader.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return loader, nil
}

func (d *DuckDBLoader) initialize() error {
	d.logger.Debug("Initializing DuckDB loader", zap.String("path", d.path))

	_, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// squirrel has no CREATE VIEW support
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT * FROM read_parquet('%s');
	`, strings.ReplaceAll(d.path, "'", "''"))

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to create view over %s", d.path)
	}

	return nil
}

// Load implements Loader.
func (d *DuckDBLoader) Load(ctx context.Context, symbol string, start time.Time, end time.Time) (*timeseries.Series, error) {
	query, args, err := d.buildQuery(symbol, optionalTime(start), optionalTime(end))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	d.logger.Debug("Loading series from DuckDB",
		zap.String("symbol", symbol),
		zap.String("column", string(d.column)),
		zap.String("query", query),
	)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err)
	}
	defer rows.Close()

	var points []timeseries.Point

	skipped := 0

	for rows.Next() {
		var (
			ts    time.Time
			value sql.NullFloat64
		)

		if err := rows.Scan(&ts, &value); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataParseFailed, "failed to scan market data row", err)
		}

		if !value.Valid {
			skipped++

			continue
		}

		points = append(points, timeseries.Point{Timestamp: ts.UnixMilli(), Value: value.Float64})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate market data", err)
	}

	if skipped > 0 {
		d.logger.Debug("Skipped rows with null values", zap.String("symbol", symbol), zap.Int("skipped", skipped))
	}

	return buildSeries(symbol, points)
}

func (d *DuckDBLoader) buildQuery(symbol string, start, end optional.Option[time.Time]) (string, []interface{}, error) {
	builder := d.sq.
		Select("time", string(d.column)).
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol})

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return builder.OrderBy("time ASC").ToSql()
}

// Close implements Loader.
func (d *DuckDBLoader) Close() error {
	return d.db.Close()
}

func optionalTime(t time.Time) optional.Option[time.Time] {
	if t.IsZero() {
		return optional.None[time.Time]()
	}

	return optional.Some(t)
}
