package strategy

import (
	"github.com/argolabs/paperledger/internal/ledger"
	"github.com/argolabs/paperledger/internal/types"
)

// Context carries everything a strategy may touch while processing a candle.
type Context struct {
	// Ledger records orders and positions and answers account queries.
	Ledger *ledger.Ledger
}

// TradingStrategy is implemented by anything that can drive a backtest.
// Strategies should keep only indicator state of their own; all position and
// balance bookkeeping belongs to the ledger.
type TradingStrategy interface {
	// Initialize sets up the strategy from a configuration string. The runner
	// passes the raw string through without interpreting it.
	Initialize(config string) error
	// ProcessCandle reacts to one candle, placing orders through the context.
	ProcessCandle(ctx Context, candle types.Candle) error
	// Name returns the name of the strategy.
	Name() string
}
