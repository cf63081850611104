package datasource

import (
	"time"

	"github.com/argolabs/paperledger/internal/types"
	"github.com/moznion/go-optional"
)

// DataSource provides candle data to a backtest run.
type DataSource interface {
	// Initialize loads the candle file at path. Supported formats are CSV and
	// Parquet, chosen by file extension.
	Initialize(path string) error

	// ReadAll streams candles in ascending time order, optionally bounded by
	// start and end (inclusive).
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Candle, error) bool)

	// Count returns the number of candles in the optional time range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)

	// GetRange returns all candles between start and end, inclusive, in
	// ascending time order.
	GetRange(start time.Time, end time.Time) ([]types.Candle, error)

	// ReadLast returns the most recent candle.
	ReadLast() (types.Candle, error)

	Close() error
}
