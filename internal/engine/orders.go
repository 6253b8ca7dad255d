package engine

import (
	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/schema"
)

// handleNewOrder runs the send_order path (§4.3): risk check, then a
// non-blocking gateway push, all under the registry mutex. A risk-rejected
// order is never inserted into the registry; an order whose push fails is
// erased again before the mutex is released, so neither becomes active.
func (e *Engine) handleNewOrder(strategyID schema.StrategyID, p codec.NewOrderPayload) {
	req := schema.OrderReq{
		TickerIndex:  p.TickerIndex,
		Type:         p.Type,
		Direction:    p.Direction,
		Offset:       p.Offset,
		Volume:       int64(p.Volume),
		Price:        e.scaledPrice(p.TickerIndex, p.Price),
		Flags:        p.Flags,
		WithoutCheck: p.WithoutCheck,
	}

	e.registry.Mu.Lock()
	defer e.registry.Mu.Unlock()

	req.EngineOrderID = e.registry.NextEngineOrderID()
	o := &schema.Order{
		Req:         req,
		UserOrderID: p.UserOrderID,
		StrategyID:  strategyID,
		Status:      schema.OrderStatusSubmitting,
	}

	if !req.WithoutCheck {
		if code := e.risk.CheckOrderReq(o); code != schema.ErrNoError {
			e.risk.OnOrderRejected(o, code)
			e.metrics.IncOrdersRejected()
			return
		}
	}

	if err := e.registry.Insert(o); err != nil {
		logs.Errorf("engine: insert order %d failed, err: %+v", req.EngineOrderID, err)
		return
	}

	if !e.gw.SendOrder(req, strategyID) {
		e.risk.OnOrderRejected(o, schema.ErrSendFailed)
		e.registry.Erase(req.EngineOrderID)
		e.metrics.IncOrdersRejected()
		return
	}

	e.risk.OnOrderSent(o)
}

func (e *Engine) scaledPrice(idx schema.TickerIndex, price float64) schema.Price {
	if e.contracts == nil {
		return schema.Price(price)
	}
	c, ok := e.contracts.Get(idx)
	if !ok {
		return schema.Price(price)
	}
	return c.ScalePrice(price)
}

// handleCancelOrder issues cancel_order (§4.3). If the broker has not
// yet returned a broker_order_id the cancel is still attempted using
// the engine id — gateways may accept it — and a reject is absorbed via
// on_order_cancel_rejected with no state change.
func (e *Engine) handleCancelOrder(engineOrderID uint64) {
	e.registry.Mu.Lock()
	defer e.registry.Mu.Unlock()

	o, ok := e.registry.Find(engineOrderID)
	if !ok {
		logs.Warnf("engine: cancel_order for unknown engine_order_id %d", engineOrderID)
		return
	}

	brokerOrderID := o.BrokerOrderID
	if brokerOrderID == 0 {
		brokerOrderID = engineOrderID
	}
	o.Status = schema.OrderStatusCanceling
	e.gw.CancelOrder(brokerOrderID)
}

// handleCancelTicker cancels every live order for a ticker, snapshotting
// under the lock before issuing the (non-blocking) gateway cancels
// while still holding it (§4.2).
func (e *Engine) handleCancelTicker(idx schema.TickerIndex) {
	e.registry.Mu.Lock()
	defer e.registry.Mu.Unlock()

	for _, o := range e.registry.SnapshotForTicker(idx) {
		e.cancelLocked(o)
	}
}

// handleCancelAll cancels every live order.
func (e *Engine) handleCancelAll() {
	e.registry.Mu.Lock()
	defer e.registry.Mu.Unlock()

	for _, o := range e.registry.SnapshotAll() {
		e.cancelLocked(o)
	}
}

// cancelLocked issues one cancel for o; caller holds registry.Mu.
func (e *Engine) cancelLocked(o *schema.Order) {
	brokerOrderID := o.BrokerOrderID
	if brokerOrderID == 0 {
		brokerOrderID = o.Req.EngineOrderID
	}
	o.Status = schema.OrderStatusCanceling
	e.gw.CancelOrder(brokerOrderID)
}
