package ledger

import (
	"cmp"
	"slices"

	"github.com/argolabs/paperledger/internal/types"
	"github.com/shopspring/decimal"
)

// placeSpotClose logs a sell order for an already validated quantity and
// executes it immediately.
func (l *Ledger) placeSpotClose(timestamp int64, price, quantity float64) int64 {
	order := l.appendOrder(types.Order{
		Kind:       types.OrderKindSell,
		Timestamp:  timestamp,
		Price:      price,
		Quantity:   quantity,
		Commission: l.spotCommission(price, quantity),
		Leverage:   1,
	})

	if !l.executeOrder(order) {
		return OrderRejected
	}

	l.afterMutation()

	return order.ID
}

// executeSpotBuy opens a new spot lot if the account can cover cost plus
// commission.
func (l *Ledger) executeSpotBuy(o *types.Order) bool {
	cost := o.Price*o.Quantity + o.Commission
	if cost > l.balance+Epsilon {
		return false
	}

	l.positions = append(l.positions, types.Position{
		EntryOrderID:    o.ID,
		CloseOrderID:    -1,
		EntryPrice:      o.Price,
		Quantity:        o.Quantity,
		EntryTime:       o.Timestamp,
		EntryCommission: o.Commission,
		Open:            true,
		Mode:            types.PositionModeSpot,
		Long:            true,
		Leverage:        1,
	})

	l.balance -= cost
	o.Executed = true

	return true
}

// executeSpotSell consumes open spot lots FIFO by entry time. Proceeds are
// credited net of the order's commission, which is charged once against the
// aggregate, not per split lot.
func (l *Ledger) executeSpotSell(o *types.Order) bool {
	proceeds, closed := l.closeFIFO(o, types.PositionModeSpot, true)
	if closed <= Epsilon {
		return false
	}

	l.balance += proceeds - o.Commission
	o.Executed = true

	return true
}

// closeFIFO walks the open positions of the given mode and side in ascending
// entry-time order, fully closing each lot the requested quantity covers and
// splitting the last one when only part of it is consumed. It returns the
// aggregate proceeds (price times closed quantity) and the closed quantity.
//
// The close order's commission is allocated to the consumed lots pro-rata by
// closed quantity so that the per-position pnl sums to the once-charged
// aggregate.
func (l *Ledger) closeFIFO(o *types.Order, mode types.PositionMode, long bool) (proceeds, closed float64) {
	idxs := l.openPositionIndexes(mode, long)
	slices.SortStableFunc(idxs, func(a, b int) int {
		return cmp.Compare(l.positions[a].EntryTime, l.positions[b].EntryTime)
	})

	requested := o.Quantity
	if requested <= Epsilon {
		return 0, 0
	}

	remaining := requested

	for _, idx := range idxs {
		if remaining <= Epsilon {
			break
		}

		lotQty := l.positions[idx].Quantity

		if remaining >= lotQty-Epsilon {
			share := o.Commission * lotQty / requested
			l.closeLot(idx, o.ID, o.Price, o.Timestamp, share)

			proceeds += o.Price * lotQty
			closed += lotQty
			remaining -= lotQty

			continue
		}

		share := o.Commission * remaining / requested
		l.splitLot(idx, remaining, o.ID, o.Price, o.Timestamp, share)

		proceeds += o.Price * remaining
		closed += remaining
		remaining = 0
	}

	return proceeds, closed
}

// closeLot closes the position at idx in full.
func (l *Ledger) closeLot(idx int, closeOrderID int64, closePrice float64, closeTime int64, closeCommission float64) {
	p := &l.positions[idx]
	p.Open = false
	p.CloseOrderID = closeOrderID
	p.ClosePrice = closePrice
	p.CloseTime = closeTime
	p.CloseCommission = closeCommission
	p.PnL = positionPnL(p.Long, p.EntryPrice, closePrice, p.Quantity, p.EntryCommission, closeCommission)
	p.ROI = positionROI(p.PnL, p.Investment())
}

// splitLot closes closeQty out of the position at idx: a new closed record is
// appended for the consumed portion and the original keeps the remainder.
// Quantity, initial margin and entry commission scale by the same fraction.
func (l *Ledger) splitLot(idx int, closeQty float64, closeOrderID int64, closePrice float64, closeTime int64, closeCommission float64) {
	original := &l.positions[idx]
	fraction := closeQty / original.Quantity

	closedPart := *original
	closedPart.Quantity = closeQty
	closedPart.EntryCommission = original.EntryCommission * fraction
	closedPart.InitialMargin = original.InitialMargin * fraction
	closedPart.Open = false
	closedPart.CloseOrderID = closeOrderID
	closedPart.ClosePrice = closePrice
	closedPart.CloseTime = closeTime
	closedPart.CloseCommission = closeCommission
	closedPart.PnL = positionPnL(closedPart.Long, closedPart.EntryPrice, closePrice, closeQty, closedPart.EntryCommission, closeCommission)
	closedPart.ROI = positionROI(closedPart.PnL, closedPart.Investment())

	original.Quantity -= closeQty
	original.EntryCommission -= closedPart.EntryCommission
	original.InitialMargin -= closedPart.InitialMargin

	// Append after the original has been mutated: growing the arena may move
	// it.
	l.positions = append(l.positions, closedPart)
}

// positionPnL computes realized pnl for a closed quantity. Quantity already
// represents the full (leveraged) exposure, so leverage must not be applied
// again here.
func positionPnL(long bool, entryPrice, closePrice, quantity, entryCommission, closeCommission float64) float64 {
	entry := decimal.NewFromFloat(entryPrice).Mul(decimal.NewFromFloat(quantity))
	exit := decimal.NewFromFloat(closePrice).Mul(decimal.NewFromFloat(quantity))

	gross := exit.Sub(entry)
	if !long {
		gross = entry.Sub(exit)
	}

	pnl, _ := gross.
		Sub(decimal.NewFromFloat(entryCommission)).
		Sub(decimal.NewFromFloat(closeCommission)).
		Float64()

	return pnl
}

// positionROI is pnl over investment in percent, 0 when the investment basis
// is degenerate.
func positionROI(pnl, investment float64) float64 {
	if investment <= Epsilon {
		return 0
	}

	return pnl / investment * 100
}
