package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/argolabs/paperledger/internal/logger"
	"github.com/argolabs/paperledger/internal/types"
	"github.com/argolabs/paperledger/pkg/errors"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDB creates a DuckDB-backed data source. The path parameter is the
// database file location; an empty string opens an in-memory database.
// Candle data is loaded separately through Initialize.
func NewDuckDB(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource. The candle file is exposed as a view so
// re-initializing with a different path replaces the data without copying it.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing candle data source", zap.String("path", path))

	reader, err := readerFor(path)
	if err != nil {
		return err
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS candles;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// CREATE VIEW is not expressible with squirrel, raw SQL here
	query := fmt.Sprintf(`
		CREATE VIEW candles AS
		SELECT time, open, high, low, close, volume FROM %s('%s');
	`, reader, path)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to load candle data from %s", path)
	}

	return nil
}

// readerFor maps a file extension to the DuckDB table function that reads it.
func readerFor(path string) (string, error) {
	switch {
	case strings.HasSuffix(path, ".csv"):
		return "read_csv_auto", nil
	case strings.HasSuffix(path, ".parquet"):
		return "read_parquet", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported candle file format: %s", path)
	}
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	builder := d.sq.Select("COUNT(*)").From("candles")

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count candles", err)
	}

	return count, nil
}

// ReadAll implements DataSource. Rows are streamed, not loaded at once, so
// arbitrarily large candle files stay cheap.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Candle, error) bool) {
	return func(yield func(types.Candle, error) bool) {
		builder := d.sq.
			Select("time", "open", "high", "low", "close", "volume").
			From("candles").
			OrderBy("time ASC")

		if start.IsSome() {
			builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
		}

		if end.IsSome() {
			builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
		}

		query, args, err := builder.ToSql()
		if err != nil {
			yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build read query", err))

			return
		}

		rows, err := d.db.Query(query, args...)
		if err != nil {
			yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			candle, err := scanCandle(rows)
			if err != nil {
				yield(types.Candle{}, err)

				return
			}

			if !yield(candle, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating candles", err))
		}
	}
}

// GetRange implements DataSource.
func (d *DuckDBDataSource) GetRange(start time.Time, end time.Time) ([]types.Candle, error) {
	query, args, err := d.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("candles").
		Where(squirrel.And{
			squirrel.GtOrEq{"time": start},
			squirrel.LtOrEq{"time": end},
		}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build range query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candle range", err)
	}
	defer rows.Close()

	var result []types.Candle

	for rows.Next() {
		candle, err := scanCandle(rows)
		if err != nil {
			return nil, err
		}

		result = append(result, candle)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating candles", err)
	}

	return result, nil
}

// ReadLast implements DataSource.
func (d *DuckDBDataSource) ReadLast() (types.Candle, error) {
	query, args, err := d.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("candles").
		OrderBy("time DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	row := d.db.QueryRow(query, args...)

	var candle types.Candle
	if err := row.Scan(&candle.Time, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume); err != nil {
		if err == sql.ErrNoRows {
			return types.Candle{}, errors.New(errors.ErrCodeDataNotFound, "no candle data loaded")
		}

		return types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err)
	}

	return candle, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

func scanCandle(rows *sql.Rows) (types.Candle, error) {
	var candle types.Candle
	if err := rows.Scan(&candle.Time, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume); err != nil {
		return types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err)
	}

	return candle, nil
}
