package engine

import (
	"testing"
	"time"

	"main/internal/chaos"
	"main/internal/schema"
)

// TestTradedVolumeInvariantHoldsUnderReorderedCallbacks feeds the same set
// of on_order_traded callbacks through chaos.Engine's reorder window and
// checks that, whatever order they arrive in, the order still reaches
// exactly one on_order_completed once its fills exhaust the requested
// volume (§8). No drop or duplicate rate is configured, and the events
// carry no timestamps, so MaxDelay leaves them unchanged.
func TestTradedVolumeInvariantHoldsUnderReorderedCallbacks(t *testing.T) {
	fills := []int32{3, 2, 4, 1}
	var total int32
	for _, f := range fills {
		total += f
	}

	for seed := int64(1); seed <= 5; seed++ {
		gw := newFakeGateway()
		rule := &countingRule{}
		e := newTestEngine(t, gw, rule)

		e.handleNewOrder(schema.NewStrategyID("s1"), newOrderPayload(total, 100))

		ce, err := chaos.NewEngine(chaos.Config{
			Seed:          seed,
			ReorderWindow: len(fills),
			MaxDelay:      time.Millisecond,
		})
		if err != nil {
			t.Fatalf("chaos engine init failed: %+v", err)
		}

		var delivered []chaos.Event
		for i, qty := range fills {
			ev := chaos.Event{Header: schema.EventHeader{Seq: uint64(i), TraceID: uint64(qty)}}
			delivered = append(delivered, ce.Process(ev)...)
		}
		delivered = append(delivered, ce.Flush()...)

		if len(delivered) != len(fills) {
			t.Fatalf("expected reordering to preserve count (no drop/duplicate configured), got %d want %d", len(delivered), len(fills))
		}

		for _, ev := range delivered {
			e.OnOrderTraded(1, schema.TradeTypeSecondaryMarket, schema.Quantity(ev.Header.TraceID), 100)
		}

		if rule.completed != 1 {
			t.Fatalf("seed %d: expected exactly one on_order_completed, got %d", seed, rule.completed)
		}
		if _, ok := e.registry.Find(1); ok {
			t.Fatalf("seed %d: expected the completed order to be erased from the registry", seed)
		}
	}
}
