package ledger

import (
	"github.com/argolabs/paperledger/internal/types"
	"go.uber.org/zap"
)

// placeMarginEntry validates, logs and executes a leveraged entry order.
func (l *Ledger) placeMarginEntry(kind types.OrderKind, timestamp int64, price, quantity, leverage, liquidationPrice float64) int64 {
	if err := l.validate.Struct(entryInput{Price: price, Quantity: quantity, Leverage: leverage}); err != nil {
		l.log.Debug("margin entry rejected",
			zap.String("kind", string(kind)),
			zap.Float64("price", price),
			zap.Float64("quantity", quantity),
			zap.Float64("leverage", leverage),
		)

		return OrderRejected
	}

	long := kind == types.OrderKindEnterLong

	order := l.appendOrder(types.Order{
		Kind:       kind,
		Timestamp:  timestamp,
		Price:      price,
		Quantity:   quantity,
		Commission: l.marginCommission(price, quantity, long),
		Leverage:   leverage,
	})

	if liquidationPrice != 0 {
		l.liqOverride[order.ID] = liquidationPrice
	}

	if !l.executeOrder(order) {
		l.log.Debug("margin entry logged but not executed",
			zap.Int64("order_id", order.ID),
			zap.Float64("balance", l.balance),
		)

		return OrderRejected
	}

	l.afterMutation()

	return order.ID
}

// placeMarginClosePercent closes a percentage of the open exposure on one
// side, resolved against the open quantity at call time.
func (l *Ledger) placeMarginClosePercent(kind types.OrderKind, timestamp int64, price, percentage float64) int64 {
	if err := l.validate.Struct(closeInput{Price: price, Percentage: percentage}); err != nil {
		return OrderRejected
	}

	held := l.openMarginQuantity(kind == types.OrderKindCloseLong)
	if held <= Epsilon {
		return OrderRejected
	}

	return l.placeMarginClose(kind, timestamp, price, held*percentage/100)
}

// placeMarginCloseQuantity closes an explicit quantity of the open exposure
// on one side.
func (l *Ledger) placeMarginCloseQuantity(kind types.OrderKind, timestamp int64, price, quantity float64) int64 {
	if price <= 0 || quantity <= 0 {
		return OrderRejected
	}

	held := l.openMarginQuantity(kind == types.OrderKindCloseLong)
	if held <= Epsilon || quantity > held+Epsilon {
		return OrderRejected
	}

	return l.placeMarginClose(kind, timestamp, price, quantity)
}

func (l *Ledger) placeMarginClose(kind types.OrderKind, timestamp int64, price, quantity float64) int64 {
	order := l.appendOrder(types.Order{
		Kind:       kind,
		Timestamp:  timestamp,
		Price:      price,
		Quantity:   quantity,
		Commission: l.marginCommission(price, quantity, kind == types.OrderKindCloseLong),
		Leverage:   1,
	})

	if !l.executeOrder(order) {
		return OrderRejected
	}

	l.afterMutation()

	return order.ID
}

// executeMarginEntry opens a leveraged position. Only the initial margin is
// committed from balance; the entry commission is validated here but realized
// inside the close pnl.
func (l *Ledger) executeMarginEntry(o *types.Order, long bool) bool {
	margin := o.Price * o.Quantity / o.Leverage
	if margin+o.Commission > l.balance+Epsilon {
		return false
	}

	liquidation := autoLiquidationPrice(o.Price, o.Leverage, long)
	custom := false

	if override, ok := l.liqOverride[o.ID]; ok {
		liquidation = override
		custom = true

		delete(l.liqOverride, o.ID)
	}

	l.positions = append(l.positions, types.Position{
		EntryOrderID:      o.ID,
		CloseOrderID:      -1,
		EntryPrice:        o.Price,
		Quantity:          o.Quantity,
		EntryTime:         o.Timestamp,
		EntryCommission:   o.Commission,
		Open:              true,
		Mode:              types.PositionModeMargin,
		Long:              long,
		Leverage:          o.Leverage,
		LiquidationPrice:  liquidation,
		CustomLiquidation: custom,
		InitialMargin:     margin,
	})

	l.balance -= margin
	o.Executed = true

	return true
}

// executeMarginClose consumes open margin lots on one side FIFO by entry
// time. Each closed or split unit credits its initial margin plus pnl back to
// balance: the margin is returned, never re-derived from price.
func (l *Ledger) executeMarginClose(o *types.Order, long bool) bool {
	_, closed := l.closeFIFO(o, types.PositionModeMargin, long)
	if closed <= Epsilon {
		return false
	}

	for i := range l.positions {
		p := &l.positions[i]
		if !p.Open && p.CloseOrderID == o.ID {
			l.balance += p.InitialMargin + p.PnL
		}
	}

	o.Executed = true

	return true
}

// openMarginQuantity sums the open quantity on one side of the margin book.
func (l *Ledger) openMarginQuantity(long bool) float64 {
	total := 0.0

	for _, idx := range l.openPositionIndexes(types.PositionModeMargin, long) {
		total += l.positions[idx].Quantity
	}

	return total
}

// autoLiquidationPrice is the leverage-derived liquidation threshold: the
// price move that consumes the posted margin. With leverage 1 a long cannot
// be liquidated (threshold 0 disables it).
func autoLiquidationPrice(entryPrice, leverage float64, long bool) float64 {
	if leverage <= 0 {
		return 0
	}

	if long {
		return entryPrice * (1 - 1/leverage)
	}

	return entryPrice * (1 + 1/leverage)
}

// GetOpenLongPosition blends all open long margin lots into one synthetic
// position: quantity-weighted entry price and leverage, summed margin and
// commission, earliest entry time. Returns a zero position when no long lots
// are open.
func (l *Ledger) GetOpenLongPosition() types.Position {
	return l.aggregateOpenMargin(true)
}

// GetOpenShortPosition is the short-side counterpart of GetOpenLongPosition.
func (l *Ledger) GetOpenShortPosition() types.Position {
	return l.aggregateOpenMargin(false)
}

func (l *Ledger) aggregateOpenMargin(long bool) types.Position {
	idxs := l.openPositionIndexes(types.PositionModeMargin, long)
	if len(idxs) == 0 {
		return types.Position{}
	}

	var (
		totalQty      float64
		entryNotional float64
		levNotional   float64
		margin        float64
		commission    float64
		earliest      int64
		liqDelta      float64
		custom        bool
	)

	earliest = l.positions[idxs[0]].EntryTime

	for _, idx := range idxs {
		p := &l.positions[idx]

		totalQty += p.Quantity
		entryNotional += p.EntryPrice * p.Quantity
		levNotional += p.Leverage * p.Quantity
		margin += p.InitialMargin
		commission += p.EntryCommission

		if p.EntryTime < earliest {
			earliest = p.EntryTime
		}

		if p.CustomLiquidation && p.LiquidationPrice != 0 {
			custom = true
		}

		if p.LiquidationPrice != 0 {
			if long {
				liqDelta += (p.EntryPrice - p.LiquidationPrice) * p.Quantity
			} else {
				liqDelta += (p.LiquidationPrice - p.EntryPrice) * p.Quantity
			}
		}
	}

	if totalQty <= Epsilon {
		return types.Position{}
	}

	avgEntry := entryNotional / totalQty
	avgLeverage := levNotional / totalQty

	var liquidation float64
	if custom {
		// Blend each lot's own liquidation distance from entry.
		avgDelta := liqDelta / totalQty
		if long {
			liquidation = avgEntry - avgDelta
		} else {
			liquidation = avgEntry + avgDelta
		}
	} else {
		liquidation = autoLiquidationPrice(avgEntry, avgLeverage, long)
	}

	return types.Position{
		EntryOrderID:      l.positions[idxs[0]].EntryOrderID,
		CloseOrderID:      -1,
		EntryPrice:        avgEntry,
		Quantity:          totalQty,
		EntryTime:         earliest,
		EntryCommission:   commission,
		Open:              true,
		Mode:              types.PositionModeMargin,
		Long:              long,
		Leverage:          avgLeverage,
		LiquidationPrice:  liquidation,
		CustomLiquidation: custom,
		InitialMargin:     margin,
	}
}
