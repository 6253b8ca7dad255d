// Package registry implements the Order Registry (C3): the single
// source of truth mapping engine_order_id to Order, guarded by a single
// mutex shared with the rest of the Trading Engine Core's dispatch path.
package registry

import (
	"sync"

	internalerrors "main/internal/errors"
	"main/internal/schema"
)

// ErrNotFound is returned by Find/Erase when the id is not registered.
// Callers treat this as the "unknown callback" case (§4.3): log at warn,
// drop, no state change.
var ErrNotFound = internalerrors.New("registry: order not found")

// ErrDuplicate is returned by Insert when the id already exists.
var ErrDuplicate = internalerrors.New("registry: duplicate engine_order_id")

// Registry is the mutex-guarded engine_order_id -> *Order map (§4.2).
// The mutex is exported as Mu so the engine can hold it across risk
// hooks and gateway calls per the concurrency model in §5 — every
// method here assumes the caller already holds Mu except where noted.
type Registry struct {
	Mu     sync.Mutex
	orders map[uint64]*schema.Order
	nextID uint64
}

// New creates an empty registry. Engine order ids start at 1 so that 0
// can serve as a "not yet assigned" sentinel.
func New() *Registry {
	return &Registry{orders: make(map[uint64]*schema.Order)}
}

// NextEngineOrderID returns the next monotonically increasing engine
// order id. Must be called with Mu held.
func (r *Registry) NextEngineOrderID() uint64 {
	r.nextID++
	return r.nextID
}

// Insert adds a new order to the registry. Must be called with Mu held.
func (r *Registry) Insert(o *schema.Order) error {
	if _, exists := r.orders[o.Req.EngineOrderID]; exists {
		return ErrDuplicate
	}
	r.orders[o.Req.EngineOrderID] = o
	return nil
}

// Find looks up a live order. Must be called with Mu held.
func (r *Registry) Find(engineOrderID uint64) (*schema.Order, bool) {
	o, ok := r.orders[engineOrderID]
	return o, ok
}

// Erase removes a terminal or rejected order from the registry. Must be
// called with Mu held, within the same critical section that performed
// the final state update (§3 invariants).
func (r *Registry) Erase(engineOrderID uint64) {
	delete(r.orders, engineOrderID)
}

// Len reports the number of live orders. Must be called with Mu held.
func (r *Registry) Len() int {
	return len(r.orders)
}

// SnapshotForTicker returns the live orders for a ticker index, snapshot
// under the lock so the caller can dispatch gateway cancels without an
// iterator surviving a concurrent mutation (§4.2). Must be called with
// Mu held.
func (r *Registry) SnapshotForTicker(idx schema.TickerIndex) []*schema.Order {
	var out []*schema.Order
	for _, o := range r.orders {
		if o.Req.TickerIndex == idx {
			out = append(out, o)
		}
	}
	return out
}

// SnapshotAll returns every live order, snapshot under the lock for
// cancel_all. Must be called with Mu held.
func (r *Registry) SnapshotAll() []*schema.Order {
	out := make([]*schema.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out
}
