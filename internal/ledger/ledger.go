// Package ledger implements the position-and-order accounting core used to
// simulate trading activity against a stream of price candles. It records
// orders, matches them into lots FIFO by entry time, tracks open and closed
// positions for spot and margin trading, enforces liquidation, and derives
// aggregate performance statistics.
//
// A Ledger is designed for single-threaded, single-owner use. Callers that
// share one instance across goroutines must serialize access themselves.
package ledger

import (
	"github.com/argolabs/paperledger/internal/logger"
	"github.com/argolabs/paperledger/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// Epsilon treats floating-point quantity residues as zero.
const Epsilon = 1e-9

// OrderRejected is returned by every placement entry point when the order was
// not accepted for execution. Invalid input is a normal outcome here, not an
// error: the facade never returns a Go error for it.
const OrderRejected int64 = -1

const (
	// marginFeeRate models the taker/funding fee applied to leveraged notional.
	marginFeeRate = 0.00055
	// marginFeeSkew models the asymmetry between long and short funding.
	marginFeeSkew = 0.1
)

// entryInput carries the validated inputs of an entry order.
type entryInput struct {
	Price    float64 `validate:"gt=0"`
	Quantity float64 `validate:"gt=0"`
	Leverage float64 `validate:"gt=0"`
}

// closeInput carries the validated inputs of a percentage-based close order.
type closeInput struct {
	Price      float64 `validate:"gt=0"`
	Percentage float64 `validate:"gt=0,lte=100"`
}

// Ledger is the facade all collaborators talk to. The strategy engine places
// orders through it; statistics consumers read through its accessors.
type Ledger struct {
	log      *logger.Logger
	validate *validator.Validate

	orders    []types.Order
	positions []types.Position

	startingBalance float64
	balance         float64

	fixedCommission   float64
	percentCommission float64

	nextOrderID int64

	// lastEventTime is the largest order timestamp seen so far. It stamps
	// administrative closes, which carry no caller-supplied time.
	lastEventTime int64

	// liqOverride keeps caller-supplied liquidation prices for orders that
	// were logged but not yet executed.
	liqOverride map[int64]float64

	balanceHistory []float64
	timepoints     []int64

	stats statsCache
}

// New creates a ledger with the given starting balance. A non-positive
// starting balance is clamped to zero.
func New(startingBalance float64, log *logger.Logger) *Ledger {
	if startingBalance < 0 {
		startingBalance = 0
	}

	l := &Ledger{
		log:             log,
		validate:        validator.New(),
		startingBalance: startingBalance,
		balance:         startingBalance,
		nextOrderID:     1,
		liqOverride:     make(map[int64]float64),
	}
	l.rebuildEquity()

	return l
}

// SetFixedCommission sets the flat commission charged per order. Applies to
// subsequently placed orders only.
func (l *Ledger) SetFixedCommission(amount float64) {
	l.fixedCommission = amount
}

// SetPercentCommission sets the proportional commission rate charged on
// notional (price times quantity). A rate of 0.001 means 0.1%. Applies to
// subsequently placed orders only.
func (l *Ledger) SetPercentCommission(rate float64) {
	l.percentCommission = rate
}

// PlaceBuyOrder opens a spot position. Returns the new order id, or
// OrderRejected if price or quantity is non-positive. An order that fails the
// balance check is still logged but stays unexecuted; ExecuteOrder may retry
// it later.
func (l *Ledger) PlaceBuyOrder(timestamp int64, price, quantity float64) int64 {
	if err := l.validate.Struct(entryInput{Price: price, Quantity: quantity, Leverage: 1}); err != nil {
		l.log.Debug("buy order rejected",
			zap.Float64("price", price),
			zap.Float64("quantity", quantity),
		)

		return OrderRejected
	}

	order := l.appendOrder(types.Order{
		Kind:       types.OrderKindBuy,
		Timestamp:  timestamp,
		Price:      price,
		Quantity:   quantity,
		Commission: l.spotCommission(price, quantity),
		Leverage:   1,
	})

	if !l.executeOrder(order) {
		l.log.Debug("buy order logged but not executed",
			zap.Int64("order_id", order.ID),
			zap.Float64("balance", l.balance),
		)

		return OrderRejected
	}

	l.afterMutation()

	return order.ID
}

// PlaceSellOrder closes a percentage (0 < pct <= 100) of all currently held
// spot quantity. The percentage is resolved against the open quantity at call
// time.
func (l *Ledger) PlaceSellOrder(timestamp int64, price, percentage float64) int64 {
	if err := l.validate.Struct(closeInput{Price: price, Percentage: percentage}); err != nil {
		return OrderRejected
	}

	held := l.GetTotalShares()
	if held <= Epsilon {
		return OrderRejected
	}

	return l.placeSpotClose(timestamp, price, held*percentage/100)
}

// PlaceSellOrderQuantity closes an explicit quantity of held spot shares.
func (l *Ledger) PlaceSellOrderQuantity(timestamp int64, price, quantity float64) int64 {
	if price <= 0 || quantity <= 0 {
		return OrderRejected
	}

	held := l.GetTotalShares()
	if held <= Epsilon || quantity > held+Epsilon {
		return OrderRejected
	}

	return l.placeSpotClose(timestamp, price, quantity)
}

// EnterLong opens a leveraged long position. A non-zero liquidationPrice
// overrides the auto-computed one. Returns the order id or OrderRejected.
func (l *Ledger) EnterLong(timestamp int64, price, quantity, leverage, liquidationPrice float64) int64 {
	return l.placeMarginEntry(types.OrderKindEnterLong, timestamp, price, quantity, leverage, liquidationPrice)
}

// EnterShort opens a leveraged short position. A non-zero liquidationPrice
// overrides the auto-computed one. Returns the order id or OrderRejected.
func (l *Ledger) EnterShort(timestamp int64, price, quantity, leverage, liquidationPrice float64) int64 {
	return l.placeMarginEntry(types.OrderKindEnterShort, timestamp, price, quantity, leverage, liquidationPrice)
}

// CloseLong closes a percentage of the open long margin exposure.
func (l *Ledger) CloseLong(timestamp int64, price, percentage float64) int64 {
	return l.placeMarginClosePercent(types.OrderKindCloseLong, timestamp, price, percentage)
}

// CloseShort closes a percentage of the open short margin exposure.
func (l *Ledger) CloseShort(timestamp int64, price, percentage float64) int64 {
	return l.placeMarginClosePercent(types.OrderKindCloseShort, timestamp, price, percentage)
}

// CloseLongQuantity closes an explicit quantity of the open long margin
// exposure.
func (l *Ledger) CloseLongQuantity(timestamp int64, price, quantity float64) int64 {
	return l.placeMarginCloseQuantity(types.OrderKindCloseLong, timestamp, price, quantity)
}

// CloseShortQuantity closes an explicit quantity of the open short margin
// exposure.
func (l *Ledger) CloseShortQuantity(timestamp int64, price, quantity float64) int64 {
	return l.placeMarginCloseQuantity(types.OrderKindCloseShort, timestamp, price, quantity)
}

// ExecuteOrder executes a previously logged but unexecuted order. It is a
// no-op when the order is unknown or already executed. Returns whether an
// execution happened.
func (l *Ledger) ExecuteOrder(orderID int64) bool {
	for i := range l.orders {
		if l.orders[i].ID != orderID {
			continue
		}

		if l.orders[i].Executed {
			return false
		}

		if !l.executeOrder(&l.orders[i]) {
			return false
		}

		l.afterMutation()

		return true
	}

	return false
}

// Reset discards all orders, positions and history and restores the starting
// balance.
func (l *Ledger) Reset() {
	l.orders = nil
	l.positions = nil
	l.balance = l.startingBalance
	l.nextOrderID = 1
	l.lastEventTime = 0
	l.liqOverride = make(map[int64]float64)
	l.rebuildEquity()
	l.stats.valid = false
}

// ResetWithBalance resets the ledger and changes the starting balance. A
// non-positive balance is a silent no-op.
func (l *Ledger) ResetWithBalance(startingBalance float64) {
	if startingBalance <= 0 {
		l.log.Debug("reset rejected", zap.Float64("starting_balance", startingBalance))

		return
	}

	l.startingBalance = startingBalance
	l.Reset()
}

// GetBalance returns the current account balance.
func (l *Ledger) GetBalance() float64 {
	return l.balance
}

// GetStartingBalance returns the balance the ledger was created or last reset
// with.
func (l *Ledger) GetStartingBalance() float64 {
	return l.startingBalance
}

// GetTotalShares returns the total open spot quantity.
func (l *Ledger) GetTotalShares() float64 {
	total := 0.0

	for i := range l.positions {
		p := &l.positions[i]
		if p.Open && p.Mode == types.PositionModeSpot {
			total += p.Quantity
		}
	}

	return total
}

// GetTotalCommission returns the summed commission of every executed order.
func (l *Ledger) GetTotalCommission() float64 {
	total := 0.0

	for i := range l.orders {
		if l.orders[i].Executed {
			total += l.orders[i].Commission
		}
	}

	return total
}

// GetRealizedPnL returns the summed pnl of every closed position.
func (l *Ledger) GetRealizedPnL() float64 {
	total := 0.0

	for i := range l.positions {
		if !l.positions[i].Open {
			total += l.positions[i].PnL
		}
	}

	return total
}

// GetUnrealizedPnL returns the pnl all open positions would realize at the
// given mark price, before commissions.
func (l *Ledger) GetUnrealizedPnL(currentPrice float64) float64 {
	total := 0.0

	for i := range l.positions {
		p := &l.positions[i]
		if !p.Open {
			continue
		}

		if p.Long {
			total += (currentPrice - p.EntryPrice) * p.Quantity
		} else {
			total += (p.EntryPrice - currentPrice) * p.Quantity
		}
	}

	return total
}

// GetTotalROI returns the realized pnl as a percentage of the starting
// balance.
func (l *Ledger) GetTotalROI() float64 {
	if l.startingBalance == 0 {
		return 0
	}

	return l.GetRealizedPnL() / l.startingBalance * 100
}

// GetOpenPositionCount returns the number of open positions.
func (l *Ledger) GetOpenPositionCount() int {
	count := 0

	for i := range l.positions {
		if l.positions[i].Open {
			count++
		}
	}

	return count
}

// GetClosedPositionCount returns the number of closed positions.
func (l *Ledger) GetClosedPositionCount() int {
	return len(l.positions) - l.GetOpenPositionCount()
}

// GetOrders returns a copy of the full order log.
func (l *Ledger) GetOrders() []types.Order {
	orders := make([]types.Order, len(l.orders))
	copy(orders, l.orders)

	return orders
}

// GetPositions returns a copy of the full position list, open and closed.
func (l *Ledger) GetPositions() []types.Position {
	positions := make([]types.Position, len(l.positions))
	copy(positions, l.positions)

	return positions
}

// GetOrderByID returns the order with the given id, or None when it does not
// exist.
func (l *Ledger) GetOrderByID(orderID int64) optional.Option[types.Order] {
	for i := range l.orders {
		if l.orders[i].ID == orderID {
			return optional.Some(l.orders[i])
		}
	}

	return optional.None[types.Order]()
}

// appendOrder assigns the next id, records the order in the log and tracks
// the most recent event time.
func (l *Ledger) appendOrder(order types.Order) *types.Order {
	order.ID = l.nextOrderID
	l.nextOrderID++

	if order.Timestamp > l.lastEventTime {
		l.lastEventTime = order.Timestamp
	}

	l.orders = append(l.orders, order)

	// Any order placement invalidates the cache, even one that ends up
	// logged but unexecuted.
	l.stats.valid = false

	return &l.orders[len(l.orders)-1]
}

// executeOrder runs the matching logic for an order. It returns false when
// the order cannot be applied (insufficient balance for entries, no eligible
// open quantity for closes); the order then stays logged but unexecuted.
func (l *Ledger) executeOrder(o *types.Order) bool {
	switch o.Kind {
	case types.OrderKindBuy:
		return l.executeSpotBuy(o)
	case types.OrderKindSell:
		return l.executeSpotSell(o)
	case types.OrderKindEnterLong:
		return l.executeMarginEntry(o, true)
	case types.OrderKindEnterShort:
		return l.executeMarginEntry(o, false)
	case types.OrderKindCloseLong:
		return l.executeMarginClose(o, true)
	case types.OrderKindCloseShort:
		return l.executeMarginClose(o, false)
	default:
		return false
	}
}

// afterMutation recomputes the equity curve and invalidates the stats cache.
// Every successful mutating operation ends here.
func (l *Ledger) afterMutation() {
	l.rebuildEquity()
	l.stats.valid = false
}

// spotCommission is the commission for a spot order: fixed amount plus the
// proportional rate applied to notional.
func (l *Ledger) spotCommission(price, quantity float64) float64 {
	return l.fixedCommission + l.percentCommission*price*quantity
}

// marginCommission adds the leverage-skew surcharge on top of the spot
// commission. Longs pay the reduced skew, shorts the increased one.
func (l *Ledger) marginCommission(price, quantity float64, long bool) float64 {
	skew := 1 + marginFeeSkew
	if long {
		skew = 1 - marginFeeSkew
	}

	return l.spotCommission(price, quantity) + price*quantity*skew*marginFeeRate
}

// openPositionIndexes collects the indexes of open positions in the given
// mode. For margin mode only positions on the requested side are returned.
func (l *Ledger) openPositionIndexes(mode types.PositionMode, long bool) []int {
	var idxs []int

	for i := range l.positions {
		p := &l.positions[i]
		if !p.Open || p.Mode != mode {
			continue
		}

		if mode == types.PositionModeMargin && p.Long != long {
			continue
		}

		idxs = append(idxs, i)
	}

	return idxs
}
