package types

// Trade is a derived aggregate of every position closed by one close order.
// Multiple positions can close under a single order id when more than one
// open lot satisfies one sell/close instruction.
type Trade struct {
	// Number is assigned sequentially in ascending close-order timestamp order.
	Number       int   `yaml:"number" json:"number" csv:"number"`
	CloseOrderID int64 `yaml:"close_order_id" json:"close_order_id" csv:"close_order_id"`
	// EntryOrderIDs lists every entry order contributing to the close.
	EntryOrderIDs []int64 `yaml:"entry_order_ids" json:"entry_order_ids" csv:"entry_order_ids"`

	PnL float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
	// ROI is PnL over the summed investment basis of the contributing
	// positions, in percent.
	ROI float64 `yaml:"roi" json:"roi" csv:"roi"`

	ClosePrice float64 `yaml:"close_price" json:"close_price" csv:"close_price"`
	CloseTime  int64   `yaml:"close_time" json:"close_time" csv:"close_time"`

	// Mode is the dominant mode among the contributing positions.
	Mode PositionMode `yaml:"mode" json:"mode" csv:"mode"`
}
