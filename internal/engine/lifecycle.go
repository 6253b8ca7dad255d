package engine

import (
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/schema"
)

// Engine implements gateway.Callbacks: every method below runs on a
// gateway driver thread and takes the registry mutex for the entirety
// of its read-modify-write, exactly like the dispatch-thread handlers
// in orders.go (§5).

// OnOrderAccepted latches `accepted` on whichever arrives first between
// this callback and the first on_order_traded (§4.3); later accepts are
// idempotent.
func (e *Engine) OnOrderAccepted(engineOrderID, brokerOrderID uint64) {
	e.registry.Mu.Lock()
	defer e.registry.Mu.Unlock()

	o, ok := e.registry.Find(engineOrderID)
	if !ok {
		logs.Warnf("engine: on_order_accepted for unknown engine_order_id %d", engineOrderID)
		return
	}
	o.BrokerOrderID = brokerOrderID
	e.latchAccepted(o)
}

// recordEvent appends an order-lifecycle event to the local WAL when a
// recorder is configured (§6 "records the same events to local disk").
// Caller holds registry.Mu; failures are logged, never fatal to the
// dispatch or callback thread.
func (e *Engine) recordEvent(eventType schema.EventType, o *schema.Order, completed bool, code schema.ErrorCode, thisTraded int32, thisTradedPrice float64) {
	if e.wal == nil {
		return
	}
	now := time.Now().UnixNano()
	header := schema.NewHeader(eventType, 0, atomic.AddUint64(&e.eventSeq, 1), now, now)
	header.TraceID = o.Req.EngineOrderID
	payload := codec.EncodeOrderResponse(nil, codec.OrderResponse{
		UserOrderID:     o.UserOrderID,
		BrokerOrderID:   o.BrokerOrderID,
		TickerIndex:     o.Req.TickerIndex,
		Direction:       o.Req.Direction,
		Offset:          o.Req.Offset,
		OriginalVolume:  o.Req.Volume,
		TradedVolume:    o.TradedVolume,
		Completed:       completed,
		ErrorCode:       code,
		ThisTraded:      thisTraded,
		ThisTradedPrice: thisTradedPrice,
	})
	if err := e.wal.TryAppend(header, payload); err != nil {
		logs.Warnf("engine: wal append failed for engine_order_id %d, err: %+v", o.Req.EngineOrderID, err)
	}
}

// OnOrderRejected erases the order unconditionally — a rejected order
// never becomes active (§4.3).
func (e *Engine) OnOrderRejected(engineOrderID uint64, code schema.ErrorCode) {
	e.registry.Mu.Lock()
	defer e.registry.Mu.Unlock()

	o, ok := e.registry.Find(engineOrderID)
	if !ok {
		logs.Warnf("engine: on_order_rejected for unknown engine_order_id %d", engineOrderID)
		return
	}
	e.risk.OnOrderRejected(o, code)
	e.recordEvent(schema.EventOrderAck, o, true, code, 0, 0)
	e.registry.Erase(engineOrderID)
	e.metrics.IncOrdersRejected()
}

// OnOrderTraded classifies the trade (§4.3). Secondary-market trades
// accumulate into traded_volume and may terminate the order.
// Primary-market trades are forwarded to risk as position-impacting
// events; only TradeTypePrimaryMarket itself is terminal.
func (e *Engine) OnOrderTraded(engineOrderID uint64, tradeType schema.TradeType, qty schema.Quantity, price schema.Price) {
	e.registry.Mu.Lock()
	defer e.registry.Mu.Unlock()

	o, ok := e.registry.Find(engineOrderID)
	if !ok {
		logs.Warnf("engine: on_order_traded for unknown engine_order_id %d", engineOrderID)
		return
	}

	e.latchAccepted(o)
	e.risk.OnOrderTraded(o, tradeType, qty, price)

	switch {
	case tradeType == schema.TradeTypePrimaryMarket:
		o.TradedVolume = int64(qty)
		e.completeLocked(o)
	case !tradeType.IsPrimaryMarket():
		o.TradedVolume += int64(qty)
		e.recordEvent(schema.EventFill, o, o.Terminal(), schema.ErrNoError, int32(qty), float64(price))
		e.metrics.IncTradesApplied()
		e.checkTerminalLocked(o)
	}
}

// OnOrderCanceled releases reserves and checks the terminal condition.
func (e *Engine) OnOrderCanceled(engineOrderID uint64, canceledQty schema.Quantity) {
	e.registry.Mu.Lock()
	defer e.registry.Mu.Unlock()

	o, ok := e.registry.Find(engineOrderID)
	if !ok {
		logs.Warnf("engine: on_order_canceled for unknown engine_order_id %d", engineOrderID)
		return
	}

	o.CanceledVolume += int64(canceledQty)
	e.risk.OnOrderCanceled(o, canceledQty)
	e.recordEvent(schema.EventOrderAck, o, o.Terminal(), schema.ErrNoError, 0, 0)
	e.metrics.IncOrdersCanceled()
	e.checkTerminalLocked(o)
}

// OnOrderCancelRejected is absorbed: log only, no state change (§4.3).
func (e *Engine) OnOrderCancelRejected(engineOrderID uint64) {
	logs.Warnf("engine: cancel rejected for engine_order_id %d", engineOrderID)
}

// latchAccepted sets accepted=true and fires risk.OnOrderAccepted the
// first time either on_order_accepted or the first on_order_traded
// arrives; subsequent calls are idempotent. Caller holds registry.Mu.
func (e *Engine) latchAccepted(o *schema.Order) {
	if o.Accepted {
		return
	}
	o.Accepted = true
	o.Status = schema.OrderStatusAccepted
	e.risk.OnOrderAccepted(o)
	e.recordEvent(schema.EventOrderAck, o, false, schema.ErrNoError, 0, 0)
	e.metrics.IncOrdersAccepted()
}

// checkTerminalLocked evaluates the single authoritative terminal test
// (§4.3) and, if satisfied, completes the order. Caller holds
// registry.Mu.
func (e *Engine) checkTerminalLocked(o *schema.Order) {
	if o.Terminal() {
		e.completeLocked(o)
	}
}

// completeLocked fires risk.OnOrderCompleted and erases the order from
// the registry. Caller holds registry.Mu.
func (e *Engine) completeLocked(o *schema.Order) {
	o.Status = schema.OrderStatusDone
	e.risk.OnOrderCompleted(o)
	e.recordEvent(schema.EventOrderCompleted, o, true, schema.ErrNoError, 0, 0)
	e.registry.Erase(o.Req.EngineOrderID)
	e.metrics.IncOrdersCompleted()
}
