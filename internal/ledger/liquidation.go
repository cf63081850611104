package ledger

import (
	"github.com/argolabs/paperledger/internal/types"
	"go.uber.org/zap"
)

// CheckLiquidation scans all open margin positions with an active liquidation
// price against the given mark price and force-closes every one that breached
// it. A long liquidates when the mark is at or below its threshold, a short
// when at or above. Returns whether any liquidation occurred.
//
// A liquidated position closes administratively at its own liquidation price
// with close order id -1 and no close commission. Its pnl is forced to the
// total loss of posted margin plus entry commission and its ROI to -100,
// independent of what the price-based formula would produce.
func (l *Ledger) CheckLiquidation(currentPrice float64) bool {
	liquidated := false

	for i := range l.positions {
		p := &l.positions[i]
		if !p.Open || p.Mode != types.PositionModeMargin || p.LiquidationPrice == 0 {
			continue
		}

		breached := (p.Long && currentPrice <= p.LiquidationPrice) ||
			(!p.Long && currentPrice >= p.LiquidationPrice)
		if !breached {
			continue
		}

		p.Open = false
		p.CloseOrderID = types.ClosedByLiquidation
		p.ClosePrice = p.LiquidationPrice
		p.CloseTime = l.lastEventTime
		p.CloseCommission = 0
		p.PnL = -p.InitialMargin - p.EntryCommission
		p.ROI = -100

		// Margin is wiped out; crediting margin plus the forced pnl nets to
		// collecting the entry commission that was deferred at entry.
		l.balance += p.InitialMargin + p.PnL

		l.log.Debug("position liquidated",
			zap.Int64("entry_order_id", p.EntryOrderID),
			zap.Float64("liquidation_price", p.LiquidationPrice),
			zap.Float64("mark_price", currentPrice),
			zap.Float64("pnl", p.PnL),
		)

		liquidated = true
	}

	if liquidated {
		l.afterMutation()
	}

	return liquidated
}
