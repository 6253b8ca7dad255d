package schema

// Offset distinguishes open-vs-close semantics for a position-changing
// order. Close-today/close-yesterday accounting only matters for
// exchanges that separate yesterday's carryover from today's holdings.
type Offset uint16

const (
	OffsetUnknown Offset = iota
	OffsetOpen
	OffsetClose
	OffsetCloseToday
	OffsetCloseYesterday
)

// TradeType tags a trade callback so the engine can distinguish an
// ordinary exchange-matched fill from a primary-market event.
type TradeType uint16

const (
	TradeTypeSecondaryMarket TradeType = iota
	TradeTypeAcquiredStock
	TradeTypeReleasedStock
	TradeTypeCashSubstitution
	TradeTypePrimaryMarket
)

// IsPrimaryMarket reports whether t belongs to the primary-market family
// of subscription events; only TradeTypePrimaryMarket itself is terminal.
func (t TradeType) IsPrimaryMarket() bool {
	switch t {
	case TradeTypeAcquiredStock, TradeTypeReleasedStock, TradeTypeCashSubstitution, TradeTypePrimaryMarket:
		return true
	default:
		return false
	}
}

// ErrorCode is the stable integer taxonomy surfaced back to strategies.
type ErrorCode int32

const (
	ErrNoError ErrorCode = iota
	ErrSendFailed
	ErrRejected
	ErrInvalidContract
	ErrInvalidVolumeOrPrice
	ErrInsufficientFunds
	ErrPositionOffsetInfeasible
	ErrPriceOutsideBand
	ErrThrottled
	ErrSelfTrade
)

// OrderStatus is the state of an Order within the Order Registry.
type OrderStatus uint16

const (
	OrderStatusSubmitting OrderStatus = iota
	OrderStatusAccepted
	OrderStatusCanceling
	OrderStatusDone
)

// StrategyID is a 16-byte, null-padded ASCII identifier echoed back on
// every wire record for a given strategy producer.
type StrategyID [16]byte

// NewStrategyID null-pads s into a StrategyID, truncating if too long.
func NewStrategyID(s string) StrategyID {
	var id StrategyID
	copy(id[:], s)
	return id
}

func (id StrategyID) String() string {
	n := len(id)
	for n > 0 && id[n-1] == 0 {
		n--
	}
	return string(id[:n])
}

// OrderReq is the immutable request that created an Order (§3).
type OrderReq struct {
	EngineOrderID uint64
	TickerIndex   TickerIndex
	Type          OrderType
	Direction     OrderSide
	Offset        Offset
	Volume        int64
	Price         Price
	Flags         uint32
	WithoutCheck  bool
}

// Order is the mutable, registry-owned record of an in-flight order.
// Every field beyond OrderReq is updated exclusively under the engine
// mutex (see internal/engine and internal/registry).
type Order struct {
	Req            OrderReq
	UserOrderID    uint32
	StrategyID     StrategyID
	BrokerOrderID  uint64
	Status         OrderStatus
	Accepted       bool
	TradedVolume   int64
	CanceledVolume int64
}

// Terminal reports whether the order has fully traded and/or canceled,
// the single authoritative terminal test from §4.3.
func (o *Order) Terminal() bool {
	return o.TradedVolume+o.CanceledVolume == o.Req.Volume
}

// Leaves returns the outstanding, unresolved volume.
func (o *Order) Leaves() int64 {
	leaves := o.Req.Volume - o.TradedVolume - o.CanceledVolume
	if leaves < 0 {
		return 0
	}
	return leaves
}
