package strategy

import (
	"github.com/argolabs/paperledger/internal/ledger"
	"github.com/argolabs/paperledger/internal/types"
	"github.com/argolabs/paperledger/pkg/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SMACrossConfig configures the moving-average crossover strategy.
type SMACrossConfig struct {
	FastPeriod int `yaml:"fast_period" validate:"required,gt=0"`
	SlowPeriod int `yaml:"slow_period" validate:"required,gtfield=FastPeriod"`
	// OrderQuantity is the number of units bought on a golden cross.
	OrderQuantity float64 `yaml:"order_quantity" validate:"required,gt=0"`
}

// SMACrossStrategy buys when the fast moving average crosses above the slow
// one and sells the whole holding when it crosses back below.
type SMACrossStrategy struct {
	config   SMACrossConfig
	validate *validator.Validate

	closes []float64
	// wasAbove remembers the relation of the averages on the previous candle
	// so only a change of sign trades.
	wasAbove bool
	primed   bool
}

func NewSMACross() *SMACrossStrategy {
	return &SMACrossStrategy{
		validate: validator.New(),
	}
}

// Name implements TradingStrategy.
func (s *SMACrossStrategy) Name() string {
	return "sma_cross"
}

// Initialize implements TradingStrategy.
func (s *SMACrossStrategy) Initialize(config string) error {
	var cfg SMACrossConfig
	if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse sma_cross config", err)
	}

	if err := s.validate.Struct(cfg); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid sma_cross config", err)
	}

	s.config = cfg
	s.closes = s.closes[:0]
	s.primed = false

	return nil
}

// ProcessCandle implements TradingStrategy.
func (s *SMACrossStrategy) ProcessCandle(ctx Context, candle types.Candle) error {
	s.closes = append(s.closes, candle.Close)
	if len(s.closes) > s.config.SlowPeriod {
		s.closes = s.closes[1:]
	}

	if len(s.closes) < s.config.SlowPeriod {
		return nil
	}

	fast := mean(s.closes[len(s.closes)-s.config.FastPeriod:])
	slow := mean(s.closes)
	above := fast > slow

	defer func() {
		s.wasAbove = above
		s.primed = true
	}()

	if !s.primed || above == s.wasAbove {
		return nil
	}

	timestamp := candle.Time.UnixMilli()

	if above {
		if id := ctx.Ledger.PlaceBuyOrder(timestamp, candle.Close, s.config.OrderQuantity); id == ledger.OrderRejected {
			// not fatal, the account simply cannot afford the entry
			return nil
		}

		return nil
	}

	if ctx.Ledger.GetTotalShares() > ledger.Epsilon {
		ctx.Ledger.PlaceSellOrder(timestamp, candle.Close, 100)
	}

	return nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
