// Package risk implements the Risk Manager (C5): an ordered chain of
// rule objects invoked at fixed hook points (§4.4): Init plus the seven
// order-lifecycle hooks declared below.
package risk

import (
	"main/internal/schema"
)

// Deps are the dependencies handed to every rule's Init hook.
type Deps struct {
	Contracts  *schema.ContractTable
	MarketData *schema.MarketDataSnapshot
}

// Rule is the marker interface every chain member implements. A rule
// implements whichever of the hook interfaces below apply to it; the
// manager type-asserts for each hook in registration order.
type Rule interface {
	Name() string
}

// Initializer runs once at login; failure aborts login.
type Initializer interface {
	Init(cfg Config, deps Deps) error
}

// OrderChecker is invoked synchronously before gateway.send_order,
// skipped iff the order's WithoutCheck flag is set. The chain stops at
// the first non-zero code.
type OrderChecker interface {
	CheckOrderReq(o *schema.Order) schema.ErrorCode
}

// OrderSentHook fires after the gateway accepts the push.
type OrderSentHook interface {
	OnOrderSent(o *schema.Order)
}

// OrderAcceptedHook fires on first broker ack (or first trade, whichever
// latches `accepted` first).
type OrderAcceptedHook interface {
	OnOrderAccepted(o *schema.Order)
}

// OrderTradedHook fires on every trade callback.
type OrderTradedHook interface {
	OnOrderTraded(o *schema.Order, tradeType schema.TradeType, qty schema.Quantity, price schema.Price)
}

// OrderCanceledHook fires on every cancel callback.
type OrderCanceledHook interface {
	OnOrderCanceled(o *schema.Order, canceledQty schema.Quantity)
}

// OrderRejectedHook fires when a send failed, risk failed, or the
// broker rejected the order.
type OrderRejectedHook interface {
	OnOrderRejected(o *schema.Order, code schema.ErrorCode)
}

// OrderCompletedHook fires exactly once, on the terminal transition.
type OrderCompletedHook interface {
	OnOrderCompleted(o *schema.Order)
}

// Manager runs the registered rules in order (§4.4). Every hook except
// CheckOrderReq is pure side-effect; the manager ignores their return
// values (there are none) and never short-circuits them.
type Manager struct {
	cfg   Config
	rules []Rule
}

// NewManager creates an empty chain with the given static config.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// Register appends a rule to the end of the chain.
func (m *Manager) Register(r Rule) {
	m.rules = append(m.rules, r)
}

// Init runs every rule's Init hook in registration order; the first
// failure aborts login.
func (m *Manager) Init(deps Deps) error {
	for _, r := range m.rules {
		if init, ok := r.(Initializer); ok {
			if err := init.Init(m.cfg, deps); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckOrderReq runs the pre-trade chain, short-circuiting at the first
// non-zero error code.
func (m *Manager) CheckOrderReq(o *schema.Order) schema.ErrorCode {
	for _, r := range m.rules {
		if checker, ok := r.(OrderChecker); ok {
			if code := checker.CheckOrderReq(o); code != schema.ErrNoError {
				return code
			}
		}
	}
	return schema.ErrNoError
}

func (m *Manager) OnOrderSent(o *schema.Order) {
	for _, r := range m.rules {
		if h, ok := r.(OrderSentHook); ok {
			h.OnOrderSent(o)
		}
	}
}

func (m *Manager) OnOrderAccepted(o *schema.Order) {
	for _, r := range m.rules {
		if h, ok := r.(OrderAcceptedHook); ok {
			h.OnOrderAccepted(o)
		}
	}
}

func (m *Manager) OnOrderTraded(o *schema.Order, tradeType schema.TradeType, qty schema.Quantity, price schema.Price) {
	for _, r := range m.rules {
		if h, ok := r.(OrderTradedHook); ok {
			h.OnOrderTraded(o, tradeType, qty, price)
		}
	}
}

func (m *Manager) OnOrderCanceled(o *schema.Order, canceledQty schema.Quantity) {
	for _, r := range m.rules {
		if h, ok := r.(OrderCanceledHook); ok {
			h.OnOrderCanceled(o, canceledQty)
		}
	}
}

func (m *Manager) OnOrderRejected(o *schema.Order, code schema.ErrorCode) {
	for _, r := range m.rules {
		if h, ok := r.(OrderRejectedHook); ok {
			h.OnOrderRejected(o, code)
		}
	}
}

func (m *Manager) OnOrderCompleted(o *schema.Order) {
	for _, r := range m.rules {
		if h, ok := r.(OrderCompletedHook); ok {
			h.OnOrderCompleted(o)
		}
	}
}
