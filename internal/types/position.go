package types

// PositionMode distinguishes plain spot holdings from leveraged exposure.
type PositionMode string

const (
	PositionModeSpot   PositionMode = "SPOT"
	PositionModeMargin PositionMode = "MARGIN"
)

// ClosedByLiquidation is the close order id recorded when a position is
// force-closed administratively rather than by a caller order.
const ClosedByLiquidation int64 = -1

// Position is the unit of ownership of a quantity of the underlying asset or
// of margin exposure. A position is created whole by an entry order and may be
// split: closing a sub-quantity appends a new closed record for the consumed
// portion while the original record keeps the remainder open.
type Position struct {
	EntryOrderID int64 `yaml:"entry_order_id" json:"entry_order_id" csv:"entry_order_id"`
	// CloseOrderID is -1 while the position is open.
	CloseOrderID int64 `yaml:"close_order_id" json:"close_order_id" csv:"close_order_id"`

	EntryPrice float64 `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ClosePrice float64 `yaml:"close_price" json:"close_price" csv:"close_price"`
	Quantity   float64 `yaml:"quantity" json:"quantity" csv:"quantity"`

	EntryTime int64 `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	CloseTime int64 `yaml:"close_time" json:"close_time" csv:"close_time"`

	EntryCommission float64 `yaml:"entry_commission" json:"entry_commission" csv:"entry_commission"`
	CloseCommission float64 `yaml:"close_commission" json:"close_commission" csv:"close_commission"`

	// PnL and ROI stay 0 while the position is open.
	PnL float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
	ROI float64 `yaml:"roi" json:"roi" csv:"roi"`

	Open bool         `yaml:"open" json:"open" csv:"open"`
	Mode PositionMode `yaml:"mode" json:"mode" csv:"mode"`
	// Long never changes after creation. Spot positions are always long.
	Long     bool    `yaml:"long" json:"long" csv:"long"`
	Leverage float64 `yaml:"leverage" json:"leverage" csv:"leverage"`

	// LiquidationPrice is 0 when liquidation is disabled.
	LiquidationPrice float64 `yaml:"liquidation_price" json:"liquidation_price" csv:"liquidation_price"`
	// CustomLiquidation is set when the caller supplied an explicit
	// liquidation price instead of the leverage-derived one.
	CustomLiquidation bool `yaml:"custom_liquidation" json:"custom_liquidation" csv:"custom_liquidation"`

	// InitialMargin is 0 for spot positions.
	InitialMargin float64 `yaml:"initial_margin" json:"initial_margin" csv:"initial_margin"`
}

// Investment returns the capital basis used for ROI: entry cost plus
// commission for spot, posted margin for margin positions.
func (p *Position) Investment() float64 {
	if p.Mode == PositionModeMargin {
		return p.InitialMargin
	}

	return p.EntryPrice*p.Quantity + p.EntryCommission
}
