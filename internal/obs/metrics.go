package obs

import (
	"sync/atomic"
)

// Metrics collects the lightweight order-flow counters the engine
// actually emits (§4.3): one atomic counter per lifecycle transition.
type Metrics struct {
	ordersAccepted  uint64
	ordersRejected  uint64
	ordersCanceled  uint64
	tradesApplied   uint64
	ordersCompleted uint64
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	OrdersAccepted  uint64
	OrdersRejected  uint64
	OrdersCanceled  uint64
	TradesApplied   uint64
	OrdersCompleted uint64
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncOrdersAccepted records a first-accept latch (§4.3).
func (m *Metrics) IncOrdersAccepted() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersAccepted, 1)
}

// IncOrdersRejected records a send failure, risk rejection, or broker
// rejection.
func (m *Metrics) IncOrdersRejected() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersRejected, 1)
}

// IncOrdersCanceled records a cancel callback.
func (m *Metrics) IncOrdersCanceled() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersCanceled, 1)
}

// IncTradesApplied records a secondary-market trade callback.
func (m *Metrics) IncTradesApplied() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.tradesApplied, 1)
}

// IncOrdersCompleted records a terminal transition.
func (m *Metrics) IncOrdersCompleted() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersCompleted, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		OrdersAccepted:  atomic.LoadUint64(&m.ordersAccepted),
		OrdersRejected:  atomic.LoadUint64(&m.ordersRejected),
		OrdersCanceled:  atomic.LoadUint64(&m.ordersCanceled),
		TradesApplied:   atomic.LoadUint64(&m.tradesApplied),
		OrdersCompleted: atomic.LoadUint64(&m.ordersCompleted),
	}
}
