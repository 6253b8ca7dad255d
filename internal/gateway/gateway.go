// Package gateway defines the Gateway Adapter capability set (C6): a
// polymorphic boundary to a broker driver, push direction for requests,
// callback direction for responses (§4.6). Concrete adapters live in
// sibling packages (gateway/virtual, gateway/btcc) and are looked up by
// name through New.
package gateway

import (
	"context"

	internalerrors "main/internal/errors"
	"main/internal/schema"
)

// ErrUnknownKind is returned by New for an unregistered adapter name.
var ErrUnknownKind = internalerrors.New("gateway: unknown adapter kind")

// Gateway is the capability set every broker adapter must satisfy.
// SendOrder and CancelOrder must return promptly relative to the engine
// dispatch loop — they push to the driver's own queue rather than
// waiting on the broker (§4.6). Query methods are allowed to block,
// but only during login/startup.
type Gateway interface {
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	QueryAccount(ctx context.Context) error
	QueryPositions(ctx context.Context) error
	QueryTrades(ctx context.Context) error
	SendOrder(req schema.OrderReq, strategyID schema.StrategyID) bool
	CancelOrder(brokerOrderID uint64) bool

	// SkipsPeriodicAccountQuery reports whether the periodic
	// query_account thread (§5) should be suppressed for this adapter,
	// true for the virtual simulator.
	SkipsPeriodicAccountQuery() bool
}

// Callbacks is the sink the engine hands to a Gateway at construction
// time; the adapter's own threads invoke these concurrently with the
// dispatch loop, and the engine is responsible for serializing them
// via the registry mutex (§4.6, §5).
type Callbacks interface {
	OnQueryContract(c schema.Contract)
	OnQueryAccount(accountID string, totalAsset, frozen, margin, balance float64)
	OnQueryPosition(idx schema.TickerIndex, side schema.OrderSide, holdings, ydHoldings int64, costPrice float64)
	OnQueryTrade(idx schema.TickerIndex, side schema.OrderSide, offset schema.Offset, volume schema.Quantity)
	OnTick(idx schema.TickerIndex, last schema.Price)
	OnOrderAccepted(engineOrderID uint64, brokerOrderID uint64)
	OnOrderRejected(engineOrderID uint64, code schema.ErrorCode)
	OnOrderTraded(engineOrderID uint64, tradeType schema.TradeType, qty schema.Quantity, price schema.Price)
	OnOrderCanceled(engineOrderID uint64, canceledQty schema.Quantity)
	OnOrderCancelRejected(engineOrderID uint64)
}

// Factory constructs a Gateway from a raw JSON config blob and the
// engine's callback sink.
type Factory func(cfg []byte, cb Callbacks) (Gateway, error)

var registry = map[string]Factory{}

// Register adds a named adapter factory. Adapter packages call this
// from an init function.
func Register(kind string, f Factory) {
	registry[kind] = f
}

// New looks up the adapter registered under kind (the config's `api`
// field, §6) and constructs it.
func New(kind string, cfg []byte, cb Callbacks) (Gateway, error) {
	f, ok := registry[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return f(cfg, cb)
}
