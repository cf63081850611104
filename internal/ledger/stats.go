package ledger

import (
	"cmp"
	"slices"

	"github.com/argolabs/paperledger/internal/types"
)

// statsCache holds the lazily rebuilt trade aggregation. valid flips to false
// on every mutation; accessors rebuild before reading so consumers never
// observe a stale result.
type statsCache struct {
	valid bool

	trades     []types.Trade
	winRate    float64
	averagePnL float64
	bestPnL    float64
	worstPnL   float64
}

// ensureStats rebuilds the cache if a mutation has invalidated it.
func (l *Ledger) ensureStats() {
	if l.stats.valid {
		return
	}

	l.rebuildStats()
	l.stats.valid = true
}

// rebuildStats groups closed positions into trades by close order id. One
// trade exists per distinct close order that produced at least one closed
// position; every administrative close shares the sentinel id -1 and
// therefore ends up in a single trade.
func (l *Ledger) rebuildStats() {
	l.stats.trades = nil
	l.stats.winRate = 0
	l.stats.averagePnL = 0
	l.stats.bestPnL = 0
	l.stats.worstPnL = 0

	groups := make(map[int64][]int)

	for i := range l.positions {
		if l.positions[i].Open {
			continue
		}

		id := l.positions[i].CloseOrderID
		groups[id] = append(groups[id], i)
	}

	if len(groups) == 0 {
		return
	}

	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}

	// Trades are numbered in ascending close-order timestamp order; the id
	// breaks ties so numbering is deterministic.
	slices.SortFunc(ids, func(a, b int64) int {
		if c := cmp.Compare(l.closeOrderTime(a, groups[a]), l.closeOrderTime(b, groups[b])); c != 0 {
			return c
		}

		return cmp.Compare(a, b)
	})

	wins := 0
	totalPnL := 0.0

	for n, id := range ids {
		trade := l.buildTrade(n+1, id, groups[id])
		l.stats.trades = append(l.stats.trades, trade)

		if trade.PnL > 0 {
			wins++
		}

		totalPnL += trade.PnL

		if n == 0 || trade.PnL > l.stats.bestPnL {
			l.stats.bestPnL = trade.PnL
		}

		if n == 0 || trade.PnL < l.stats.worstPnL {
			l.stats.worstPnL = trade.PnL
		}
	}

	count := len(ids)
	l.stats.winRate = float64(wins) / float64(count) * 100
	l.stats.averagePnL = totalPnL / float64(count)
}

// closeOrderTime resolves the ordering timestamp of a trade group: the close
// order's timestamp, or the earliest close time of its positions for
// administrative closes that have no order.
func (l *Ledger) closeOrderTime(closeOrderID int64, idxs []int) int64 {
	if closeOrderID >= 1 {
		if order := l.GetOrderByID(closeOrderID); order.IsSome() {
			return order.Unwrap().Timestamp
		}
	}

	earliest := l.positions[idxs[0]].CloseTime
	for _, idx := range idxs[1:] {
		if l.positions[idx].CloseTime < earliest {
			earliest = l.positions[idx].CloseTime
		}
	}

	return earliest
}

// buildTrade sums one close order's positions into a trade aggregate.
func (l *Ledger) buildTrade(number int, closeOrderID int64, idxs []int) types.Trade {
	var (
		pnl        float64
		investment float64
		spotCount  int
	)

	entryIDs := make([]int64, 0, len(idxs))

	first := &l.positions[idxs[0]]

	for _, idx := range idxs {
		p := &l.positions[idx]

		pnl += p.PnL
		investment += p.Investment()
		entryIDs = append(entryIDs, p.EntryOrderID)

		if p.Mode == types.PositionModeSpot {
			spotCount++
		}
	}

	mode := types.PositionModeMargin
	if spotCount*2 > len(idxs) || (spotCount*2 == len(idxs) && first.Mode == types.PositionModeSpot) {
		mode = types.PositionModeSpot
	}

	roi := 0.0
	if investment > Epsilon {
		roi = pnl / investment * 100
	}

	return types.Trade{
		Number:        number,
		CloseOrderID:  closeOrderID,
		EntryOrderIDs: entryIDs,
		PnL:           pnl,
		ROI:           roi,
		ClosePrice:    first.ClosePrice,
		CloseTime:     l.closeOrderTime(closeOrderID, idxs),
		Mode:          mode,
	}
}

// GetTrades returns the derived trade list, rebuilding the cache if needed.
func (l *Ledger) GetTrades() []types.Trade {
	l.ensureStats()

	trades := make([]types.Trade, len(l.stats.trades))
	copy(trades, l.stats.trades)

	return trades
}

// GetTradeCount returns the number of derived trades.
func (l *Ledger) GetTradeCount() int {
	l.ensureStats()

	return len(l.stats.trades)
}

// GetWinRate returns the percentage of trades with positive pnl, 0 when no
// trade has closed yet.
func (l *Ledger) GetWinRate() float64 {
	l.ensureStats()

	return l.stats.winRate
}

// GetAveragePnL returns the mean trade pnl.
func (l *Ledger) GetAveragePnL() float64 {
	l.ensureStats()

	return l.stats.averagePnL
}

// GetBestTradePnL returns the largest trade pnl.
func (l *Ledger) GetBestTradePnL() float64 {
	l.ensureStats()

	return l.stats.bestPnL
}

// GetWorstTradePnL returns the smallest trade pnl.
func (l *Ledger) GetWorstTradePnL() float64 {
	l.ensureStats()

	return l.stats.worstPnL
}
