// Package virtual is the deterministic in-memory gateway simulator
// named by the `virtual` config value (spec.md §4.6): every accepted
// order is immediately and fully filled at its request price, and the
// periodic account-query thread is skipped since there is no broker to
// poll. It exists for tests and for running the engine without a live
// broker connection.
package virtual

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"main/internal/gateway"
	"main/internal/schema"
)

func init() {
	gateway.Register("virtual", New)
}

// Config controls the simulator's fill behavior.
type Config struct {
	// RejectTickers, when non-empty, causes SendOrder to synchronously
	// fail (as if the push itself failed) for the listed tickers —
	// used to exercise ERR_SEND_FAILED paths in tests.
	RejectTickers []schema.TickerIndex `json:"rejectTickers"`
}

type order struct {
	brokerOrderID uint64
	req           schema.OrderReq
	leaves        int64
}

// Adapter is the virtual.Gateway implementation.
type Adapter struct {
	cfg      Config
	cb       gateway.Callbacks
	nextID   uint64
	mu       sync.Mutex
	pending  map[uint64]*order // by brokerOrderID, deleted once terminal
	byBroker map[uint64]uint64 // brokerOrderID -> EngineOrderID, kept for the life of the adapter
}

// New constructs a virtual adapter; satisfies gateway.Factory.
func New(cfgJSON []byte, cb gateway.Callbacks) (gateway.Gateway, error) {
	var cfg Config
	if len(cfgJSON) > 0 {
		if err := json.Unmarshal(cfgJSON, &cfg); err != nil {
			return nil, err
		}
	}
	return &Adapter{cfg: cfg, cb: cb, pending: make(map[uint64]*order), byBroker: make(map[uint64]uint64)}, nil
}

func (a *Adapter) Login(ctx context.Context) error  { return nil }
func (a *Adapter) Logout(ctx context.Context) error { return nil }

func (a *Adapter) QueryAccount(ctx context.Context) error {
	a.cb.OnQueryAccount("virtual", 0, 0, 0, 0)
	return nil
}

func (a *Adapter) QueryPositions(ctx context.Context) error { return nil }
func (a *Adapter) QueryTrades(ctx context.Context) error    { return nil }

func (a *Adapter) SkipsPeriodicAccountQuery() bool { return true }

func (a *Adapter) rejects(idx schema.TickerIndex) bool {
	for _, t := range a.cfg.RejectTickers {
		if t == idx {
			return true
		}
	}
	return false
}

// SendOrder always returns promptly; the accept/fill callbacks are
// delivered from a separate goroutine, mirroring a real broker driver's
// own callback thread (§4.6, §5).
func (a *Adapter) SendOrder(req schema.OrderReq, strategyID schema.StrategyID) bool {
	if a.rejects(req.TickerIndex) {
		return false
	}
	brokerOrderID := atomic.AddUint64(&a.nextID, 1)

	a.mu.Lock()
	a.pending[brokerOrderID] = &order{brokerOrderID: brokerOrderID, req: req, leaves: req.Volume}
	a.byBroker[brokerOrderID] = req.EngineOrderID
	a.mu.Unlock()

	go func() {
		a.cb.OnOrderAccepted(req.EngineOrderID, brokerOrderID)
		a.mu.Lock()
		delete(a.pending, brokerOrderID)
		a.mu.Unlock()
		a.cb.OnOrderTraded(req.EngineOrderID, schema.TradeTypeSecondaryMarket, schema.Quantity(req.Volume), req.Price)
	}()
	return true
}

// CancelOrder cancels whatever volume is still marked pending; a fully
// filled order (already removed from pending) yields a cancel-reject.
func (a *Adapter) CancelOrder(brokerOrderID uint64) bool {
	a.mu.Lock()
	o, ok := a.pending[brokerOrderID]
	engineOrderID := a.byBroker[brokerOrderID]
	if ok {
		delete(a.pending, brokerOrderID)
	}
	a.mu.Unlock()

	if !ok {
		go a.cb.OnOrderCancelRejected(engineOrderID)
		return false
	}
	go a.cb.OnOrderCanceled(o.req.EngineOrderID, schema.Quantity(o.leaves))
	return true
}
