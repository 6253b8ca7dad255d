package risk

import (
	"testing"
	"time"

	"main/internal/portfolio"
	"main/internal/schema"
)

func newOrder(idx schema.TickerIndex, side schema.OrderSide, offset schema.Offset, volume int64, price schema.Price) *schema.Order {
	return &schema.Order{Req: schema.OrderReq{
		TickerIndex: idx,
		Direction:   side,
		Offset:      offset,
		Type:        schema.OrderTypeLimit,
		Volume:      volume,
		Price:       price,
	}}
}

func TestKillSwitchRule(t *testing.T) {
	r := &killSwitchRule{}
	if err := r.Init(Config{KillSwitch: true}, Deps{}); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 1, 100)); code != schema.ErrRejected {
		t.Fatalf("expected ErrRejected while kill switch is on, got %v", code)
	}
}

func TestTickerValidityRule(t *testing.T) {
	contracts := schema.NewContractTable()
	if err := contracts.Add(schema.Contract{Index: 1, Ticker: "A"}); err != nil {
		t.Fatalf("add contract: %+v", err)
	}
	contracts.Seal()

	r := &tickerValidityRule{}
	_ = r.Init(Config{}, Deps{Contracts: contracts})

	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 1, 100)); code != schema.ErrNoError {
		t.Fatalf("expected known ticker to pass, got %v", code)
	}
	if code := r.CheckOrderReq(newOrder(99, schema.OrderSideBuy, schema.OffsetOpen, 1, 100)); code != schema.ErrInvalidContract {
		t.Fatalf("expected unknown ticker to be rejected, got %v", code)
	}
}

func TestVolumePriceRule(t *testing.T) {
	r := &volumePriceRule{}
	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 0, 100)); code != schema.ErrInvalidVolumeOrPrice {
		t.Fatalf("expected zero volume to be rejected, got %v", code)
	}
	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 1, 0)); code != schema.ErrInvalidVolumeOrPrice {
		t.Fatalf("expected zero limit price to be rejected, got %v", code)
	}
	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 1, 100)); code != schema.ErrNoError {
		t.Fatalf("expected valid order to pass, got %v", code)
	}
}

func TestPriceBandRule(t *testing.T) {
	md := schema.NewMarketDataSnapshot()
	md.Update(1, 1000)

	r := &priceBandRule{}
	_ = r.Init(Config{MaxPriceDeviationBps: 100}, Deps{MarketData: md}) // 1% band

	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 1, 1005)); code != schema.ErrNoError {
		t.Fatalf("expected price within band to pass, got %v", code)
	}
	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 1, 1200)); code != schema.ErrPriceOutsideBand {
		t.Fatalf("expected price outside band to be rejected, got %v", code)
	}
}

func TestBalanceRule(t *testing.T) {
	r := &balanceRule{}
	_ = r.Init(Config{MaxOrderNotional: 1000}, Deps{})

	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 5, 100)); code != schema.ErrNoError {
		t.Fatalf("expected notional 500 to pass a 1000 cap, got %v", code)
	}
	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 20, 100)); code != schema.ErrInsufficientFunds {
		t.Fatalf("expected notional 2000 to breach a 1000 cap, got %v", code)
	}
}

func TestPositionOffsetRuleRejectsOverclose(t *testing.T) {
	ledger := portfolio.New()
	ledger.SetPosition(portfolio.Position{TickerIndex: 1, Long: portfolio.Leg{Holdings: 5}})

	r := &positionOffsetRule{ledger: ledger}
	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideSell, schema.OffsetClose, 10, 100)); code != schema.ErrPositionOffsetInfeasible {
		t.Fatalf("expected closing more than held to be rejected, got %v", code)
	}
	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideSell, schema.OffsetClose, 3, 100)); code != schema.ErrNoError {
		t.Fatalf("expected closing within held to pass, got %v", code)
	}
}

func TestPositionOffsetRuleEnforcesMaxPosition(t *testing.T) {
	ledger := portfolio.New()
	ledger.SetPosition(portfolio.Position{TickerIndex: 1, Long: portfolio.Leg{Holdings: 8}})

	r := &positionOffsetRule{ledger: ledger, maxPosition: 10}
	if code := r.CheckOrderReq(newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 5, 100)); code != schema.ErrPositionOffsetInfeasible {
		t.Fatalf("expected opening past the position cap to be rejected, got %v", code)
	}
}

func TestSelfTradeRuleRejectsOppositeDirectionSameStrategy(t *testing.T) {
	r := &selfTradeRule{}
	live := newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 1, 100)
	live.StrategyID = schema.NewStrategyID("s1")
	r.OnOrderSent(live)

	incoming := newOrder(1, schema.OrderSideSell, schema.OffsetOpen, 1, 100)
	incoming.StrategyID = schema.NewStrategyID("s1")
	if code := r.CheckOrderReq(incoming); code != schema.ErrSelfTrade {
		t.Fatalf("expected opposite-direction same-strategy order to be rejected, got %v", code)
	}

	r.OnOrderCompleted(live)
	if code := r.CheckOrderReq(incoming); code != schema.ErrNoError {
		t.Fatalf("expected order to pass once the opposing order completed, got %v", code)
	}
}

func TestThrottleRuleEnforcesRateLimit(t *testing.T) {
	r := &throttleRule{}
	_ = r.Init(Config{OrderRateLimit: 2, OrderRateWindow: time.Minute}, Deps{})

	o := newOrder(1, schema.OrderSideBuy, schema.OffsetOpen, 1, 100)
	if code := r.CheckOrderReq(o); code != schema.ErrNoError {
		t.Fatalf("1st order should pass, got %v", code)
	}
	if code := r.CheckOrderReq(o); code != schema.ErrNoError {
		t.Fatalf("2nd order should pass, got %v", code)
	}
	if code := r.CheckOrderReq(o); code != schema.ErrThrottled {
		t.Fatalf("3rd order within the window should be throttled, got %v", code)
	}
}

func TestStandardChainOrder(t *testing.T) {
	chain := StandardChain(Config{}, portfolio.New())
	if len(chain) != 8 {
		t.Fatalf("expected 8 rules, got %d", len(chain))
	}
	if chain[0].Name() != "kill_switch" {
		t.Fatalf("expected kill_switch first, got %s", chain[0].Name())
	}
}
