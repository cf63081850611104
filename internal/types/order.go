package types

// OrderKind identifies the economic action an order performs.
type OrderKind string

const (
	OrderKindBuy        OrderKind = "BUY"
	OrderKindSell       OrderKind = "SELL"
	OrderKindEnterLong  OrderKind = "ENTER_LONG"
	OrderKindEnterShort OrderKind = "ENTER_SHORT"
	OrderKindCloseLong  OrderKind = "CLOSE_LONG"
	OrderKindCloseShort OrderKind = "CLOSE_SHORT"
)

// IsEntry returns true for kinds that open new positions.
func (k OrderKind) IsEntry() bool {
	return k == OrderKindBuy || k == OrderKindEnterLong || k == OrderKindEnterShort
}

// IsClose returns true for kinds that close existing positions.
func (k OrderKind) IsClose() bool {
	return k == OrderKindSell || k == OrderKindCloseLong || k == OrderKindCloseShort
}

// IsMargin returns true for kinds that operate on leveraged positions.
func (k OrderKind) IsMargin() bool {
	switch k {
	case OrderKindEnterLong, OrderKindEnterShort, OrderKindCloseLong, OrderKindCloseShort:
		return true
	default:
		return false
	}
}

// Order is an accepted order as recorded in the order log.
// Orders are immutable after creation except for Executed, which flips once
// when a deferred order is executed.
type Order struct {
	// ID is assigned by the ledger, strictly increasing starting at 1.
	ID   int64     `yaml:"id" json:"id" csv:"id"`
	Kind OrderKind `yaml:"kind" json:"kind" csv:"kind"`
	// Timestamp is caller-supplied, milliseconds since epoch. 0 means unset.
	Timestamp int64   `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Price     float64 `yaml:"price" json:"price" csv:"price"`
	// Quantity holds the resolved quantity for the order. Percentage-based
	// close calls resolve against current open quantity before the order is
	// constructed.
	Quantity   float64 `yaml:"quantity" json:"quantity" csv:"quantity"`
	Commission float64 `yaml:"commission" json:"commission" csv:"commission"`
	// Leverage is 1.0 for spot orders.
	Leverage float64 `yaml:"leverage" json:"leverage" csv:"leverage"`
	Executed bool    `yaml:"executed" json:"executed" csv:"executed"`
}
