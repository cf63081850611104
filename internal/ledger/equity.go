package ledger

import (
	"cmp"
	"slices"
)

// rebuildEquity recomputes the equity curve from scratch: the curve starts at
// (startingBalance, t=0) and accumulates the pnl of every closed position in
// close-time order. Full recomputation is the only safe policy here because
// FIFO matching can retroactively split earlier positions.
func (l *Ledger) rebuildEquity() {
	l.balanceHistory = l.balanceHistory[:0]
	l.timepoints = l.timepoints[:0]

	l.balanceHistory = append(l.balanceHistory, l.startingBalance)
	l.timepoints = append(l.timepoints, 0)

	var closed []int

	for i := range l.positions {
		if !l.positions[i].Open {
			closed = append(closed, i)
		}
	}

	slices.SortStableFunc(closed, func(a, b int) int {
		return cmp.Compare(l.positions[a].CloseTime, l.positions[b].CloseTime)
	})

	running := l.startingBalance

	for _, idx := range closed {
		running += l.positions[idx].PnL
		l.balanceHistory = append(l.balanceHistory, running)
		l.timepoints = append(l.timepoints, l.positions[idx].CloseTime)
	}
}

// GetBalanceHistory returns a copy of the equity curve values. The entry at
// index i pairs with GetTimepoints()[i].
func (l *Ledger) GetBalanceHistory() []float64 {
	history := make([]float64, len(l.balanceHistory))
	copy(history, l.balanceHistory)

	return history
}

// GetTimepoints returns a copy of the equity curve timestamps.
func (l *Ledger) GetTimepoints() []int64 {
	points := make([]int64, len(l.timepoints))
	copy(points, l.timepoints)

	return points
}
