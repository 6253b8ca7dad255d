package risk

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"main/internal/portfolio"
	"main/internal/schema"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Config carries the static limits consumed by the built-in rules. It is
// the JSON-config-facing shape loaded by internal/ops.
type Config struct {
	KillSwitch           bool            `json:"killSwitch"`
	MaxOrderQty          schema.Quantity `json:"maxOrderQty"`
	MaxOrderNotional     schema.Notional `json:"maxOrderNotional"`
	MaxPosition          schema.Quantity `json:"maxPosition"`
	OrderRateLimit       int             `json:"orderRateLimit"`
	OrderRateWindow      time.Duration   `json:"orderRateWindow"`
	MaxPriceDeviationBps int64           `json:"maxPriceDeviationBps"`
}

// StandardChain builds the chain of built-in rules named in §4.4: kill
// switch, ticker validity, volume/price positivity, price band vs last
// tick, per-order notional cap (balanceRule), position-offset feasibility,
// self-trade prevention, throttle/cooldown — in that order.
func StandardChain(cfg Config, ledger *portfolio.Ledger) []Rule {
	return []Rule{
		&killSwitchRule{},
		&tickerValidityRule{},
		&volumePriceRule{},
		&priceBandRule{},
		&balanceRule{},
		&positionOffsetRule{ledger: ledger},
		&selfTradeRule{},
		&throttleRule{},
	}
}

// BuildChain builds the chain from an ordered list of rule names (the
// rms_rules config key, §6), so deployments can omit or reorder
// built-ins instead of always running StandardChain's fixed order.
func BuildChain(names []string, cfg Config, ledger *portfolio.Ledger) ([]Rule, error) {
	factories := map[string]func() Rule{
		"kill_switch":      func() Rule { return &killSwitchRule{} },
		"ticker_validity":  func() Rule { return &tickerValidityRule{} },
		"volume_price":     func() Rule { return &volumePriceRule{} },
		"price_band":       func() Rule { return &priceBandRule{} },
		"balance":          func() Rule { return &balanceRule{} },
		"position_offset":  func() Rule { return &positionOffsetRule{ledger: ledger} },
		"self_trade":       func() Rule { return &selfTradeRule{} },
		"throttle":         func() Rule { return &throttleRule{} },
	}
	chain := make([]Rule, 0, len(names))
	for _, name := range names {
		factory, ok := factories[name]
		if !ok {
			return nil, fmt.Errorf("risk: unknown rms_rules entry %q", name)
		}
		chain = append(chain, factory())
	}
	return chain, nil
}

// --- kill switch ---

type killSwitchRule struct{ enabled int32 }

func (r *killSwitchRule) Name() string { return "kill_switch" }

func (r *killSwitchRule) Init(cfg Config, _ Deps) error {
	if cfg.KillSwitch {
		atomic.StoreInt32(&r.enabled, 1)
	}
	return nil
}

func (r *killSwitchRule) CheckOrderReq(o *schema.Order) schema.ErrorCode {
	if atomic.LoadInt32(&r.enabled) != 0 {
		return schema.ErrRejected
	}
	return schema.ErrNoError
}

// KillSwitchControl lets an operator toggle a running chain's kill
// switch after construction, independent of the static Config.KillSwitch
// value it was initialized with — the handle the control socket drives.
type KillSwitchControl struct {
	rule *killSwitchRule
}

// Engage rejects every new order until Disengage is called.
func (c *KillSwitchControl) Engage() {
	if c == nil {
		return
	}
	atomic.StoreInt32(&c.rule.enabled, 1)
}

// Disengage resumes normal order acceptance.
func (c *KillSwitchControl) Disengage() {
	if c == nil {
		return
	}
	atomic.StoreInt32(&c.rule.enabled, 0)
}

// Engaged reports the current state.
func (c *KillSwitchControl) Engaged() bool {
	if c == nil {
		return false
	}
	return atomic.LoadInt32(&c.rule.enabled) != 0
}

// FindKillSwitch returns a control handle bound to the kill_switch rule
// in chain, or nil if the chain does not carry one (e.g. a custom
// rms_rules list that omits it).
func FindKillSwitch(chain []Rule) *KillSwitchControl {
	for _, r := range chain {
		if ks, ok := r.(*killSwitchRule); ok {
			return &KillSwitchControl{rule: ks}
		}
	}
	return nil
}

// --- ticker validity ---

type tickerValidityRule struct{ contracts *schema.ContractTable }

func (r *tickerValidityRule) Name() string { return "ticker_validity" }

func (r *tickerValidityRule) Init(_ Config, deps Deps) error {
	r.contracts = deps.Contracts
	return nil
}

func (r *tickerValidityRule) CheckOrderReq(o *schema.Order) schema.ErrorCode {
	if r.contracts == nil {
		return schema.ErrNoError
	}
	if _, ok := r.contracts.Get(o.Req.TickerIndex); !ok {
		return schema.ErrInvalidContract
	}
	return schema.ErrNoError
}

// --- volume/price positivity ---

type volumePriceRule struct{}

func (r *volumePriceRule) Name() string { return "volume_price" }

func (r *volumePriceRule) CheckOrderReq(o *schema.Order) schema.ErrorCode {
	if o.Req.Volume <= 0 {
		return schema.ErrInvalidVolumeOrPrice
	}
	if o.Req.Type == schema.OrderTypeLimit && o.Req.Price <= 0 {
		return schema.ErrInvalidVolumeOrPrice
	}
	return schema.ErrNoError
}

// --- price band vs last tick ---

type priceBandRule struct {
	maxDeviationBps int64
	marketData      *schema.MarketDataSnapshot
}

func (r *priceBandRule) Name() string { return "price_band" }

func (r *priceBandRule) Init(cfg Config, deps Deps) error {
	r.maxDeviationBps = cfg.MaxPriceDeviationBps
	r.marketData = deps.MarketData
	return nil
}

func (r *priceBandRule) CheckOrderReq(o *schema.Order) schema.ErrorCode {
	if r.maxDeviationBps <= 0 || r.marketData == nil {
		return schema.ErrNoError
	}
	if o.Req.Type != schema.OrderTypeLimit || o.Req.Price <= 0 {
		return schema.ErrNoError
	}
	ref, ok := r.marketData.Last(o.Req.TickerIndex)
	if !ok || ref <= 0 {
		return schema.ErrNoError
	}
	diff := absInt64(int64(o.Req.Price) - int64(ref))
	if exceedsDeviation(diff, int64(ref), r.maxDeviationBps) {
		return schema.ErrPriceOutsideBand
	}
	return schema.ErrNoError
}

// --- account-balance sufficiency ---
//
// Compares each order's notional (price × volume) with the static
// MaxOrderNotional cap and rejects with ErrInsufficientFunds above it.
// The account balance held by the ledger is not consulted.

type balanceRule struct {
	maxOrderNotional schema.Notional
}

func (r *balanceRule) Name() string { return "balance" }

func (r *balanceRule) Init(cfg Config, _ Deps) error {
	r.maxOrderNotional = cfg.MaxOrderNotional
	return nil
}

func (r *balanceRule) CheckOrderReq(o *schema.Order) schema.ErrorCode {
	if r.maxOrderNotional <= 0 {
		return schema.ErrNoError
	}
	notional, overflow := mulNotional(o.Req.Price, schema.Quantity(o.Req.Volume))
	if overflow || notional > r.maxOrderNotional {
		return schema.ErrInsufficientFunds
	}
	return schema.ErrNoError
}

// --- position-offset feasibility ---
//
// Derived from the long/short leg data model (§3) and the §4.4
// requirement to reject closes beyond what is held and opens beyond the
// configured position cap; the teacher has no equivalent rule.
type positionOffsetRule struct {
	ledger      *portfolio.Ledger
	maxPosition schema.Quantity
}

func (r *positionOffsetRule) Name() string { return "position_offset" }

func (r *positionOffsetRule) Init(cfg Config, _ Deps) error {
	r.maxPosition = cfg.MaxPosition
	return nil
}

func (r *positionOffsetRule) CheckOrderReq(o *schema.Order) schema.ErrorCode {
	if r.ledger == nil {
		return schema.ErrNoError
	}
	pos, _ := r.ledger.Position(o.Req.TickerIndex)
	if o.Req.Offset != schema.OffsetOpen {
		held := availableToClose(pos, o.Req.Direction, o.Req.Offset)
		if schema.Quantity(o.Req.Volume) > held {
			return schema.ErrPositionOffsetInfeasible
		}
	}
	if r.maxPosition > 0 {
		next := projectedPosition(pos, o.Req.Direction, o.Req.Offset, schema.Quantity(o.Req.Volume))
		if absQuantity(next) > r.maxPosition {
			return schema.ErrPositionOffsetInfeasible
		}
	}
	return schema.ErrNoError
}

func availableToClose(p portfolio.Position, side schema.OrderSide, offset schema.Offset) schema.Quantity {
	leg := p.Long
	if side == schema.OrderSideBuy {
		leg = p.Short
	}
	if offset == schema.OffsetCloseYesterday {
		return leg.YdHoldings
	}
	return leg.Holdings
}

func projectedPosition(p portfolio.Position, side schema.OrderSide, offset schema.Offset, volume schema.Quantity) schema.Quantity {
	net := p.Long.Holdings - p.Short.Holdings
	switch {
	case offset == schema.OffsetOpen && side == schema.OrderSideBuy:
		return net + volume
	case offset == schema.OffsetOpen && side == schema.OrderSideSell:
		return net - volume
	case side == schema.OrderSideSell:
		return net - volume
	case side == schema.OrderSideBuy:
		return net + volume
	default:
		return net
	}
}

// --- self-trade prevention ---
//
// Minimal interpretation: reject an order whose strategy already has a
// live order on the same ticker in the opposite direction. The spec
// names the rule but does not fix exact semantics beyond that.
type selfTradeRule struct {
	mu           sync.Mutex
	liveByTicker map[schema.TickerIndex][]*schema.Order
}

func (r *selfTradeRule) Name() string { return "self_trade" }

func (r *selfTradeRule) CheckOrderReq(o *schema.Order) schema.ErrorCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.liveByTicker[o.Req.TickerIndex] {
		if existing.StrategyID == o.StrategyID && existing.Req.Direction != o.Req.Direction {
			return schema.ErrSelfTrade
		}
	}
	return schema.ErrNoError
}

func (r *selfTradeRule) OnOrderSent(o *schema.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.liveByTicker == nil {
		r.liveByTicker = make(map[schema.TickerIndex][]*schema.Order)
	}
	r.liveByTicker[o.Req.TickerIndex] = append(r.liveByTicker[o.Req.TickerIndex], o)
}

func (r *selfTradeRule) OnOrderCompleted(o *schema.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	live := r.liveByTicker[o.Req.TickerIndex]
	for i, existing := range live {
		if existing.Req.EngineOrderID == o.Req.EngineOrderID {
			r.liveByTicker[o.Req.TickerIndex] = append(live[:i], live[i+1:]...)
			break
		}
	}
}

// --- throttle / cooldown ---

type throttleRule struct {
	limit  int
	window time.Duration

	mu          sync.Mutex
	windowStart time.Time
	count       int
}

func (r *throttleRule) Name() string { return "throttle" }

func (r *throttleRule) Init(cfg Config, _ Deps) error {
	r.limit = cfg.OrderRateLimit
	r.window = cfg.OrderRateWindow
	return nil
}

func (r *throttleRule) CheckOrderReq(o *schema.Order) schema.ErrorCode {
	if r.limit <= 0 || r.window <= 0 {
		return schema.ErrNoError
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if r.windowStart.IsZero() || now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.count = 0
	}
	r.count++
	if r.count > r.limit {
		return schema.ErrThrottled
	}
	return schema.ErrNoError
}

// --- shared numeric helpers (overflow-safe, ported from the teacher's
// risk engine) ---

func mulNotional(price schema.Price, qty schema.Quantity) (schema.Notional, bool) {
	p := int64(price)
	q := int64(qty)
	if p == 0 || q == 0 {
		return 0, false
	}
	if p < 0 {
		p = -p
	}
	if q < 0 {
		q = -q
	}
	if p > maxInt64/q {
		return 0, true
	}
	return schema.Notional(int64(price) * int64(qty)), false
}

func absQuantity(q schema.Quantity) schema.Quantity {
	if q < 0 {
		return -q
	}
	return q
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func exceedsDeviation(diff int64, ref int64, bps int64) bool {
	if diff <= 0 || ref <= 0 || bps <= 0 {
		return false
	}
	if diff > maxInt64/10000 {
		return true
	}
	lhs := diff * 10000
	if ref > maxInt64/bps {
		return true
	}
	rhs := ref * bps
	return lhs > rhs
}
