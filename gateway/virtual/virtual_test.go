package virtual

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

type recordingCallbacks struct {
	accepted chan uint64
	traded   chan schema.Quantity
	canceled chan schema.Quantity
	rejected chan uint64
}

func newRecordingCallbacks() *recordingCallbacks {
	return &recordingCallbacks{
		accepted: make(chan uint64, 8),
		traded:   make(chan schema.Quantity, 8),
		canceled: make(chan schema.Quantity, 8),
		rejected: make(chan uint64, 8),
	}
}

func (c *recordingCallbacks) OnQueryContract(schema.Contract) {}
func (c *recordingCallbacks) OnQueryAccount(string, float64, float64, float64, float64) {}
func (c *recordingCallbacks) OnQueryPosition(schema.TickerIndex, schema.OrderSide, int64, int64, float64) {
}
func (c *recordingCallbacks) OnQueryTrade(schema.TickerIndex, schema.OrderSide, schema.Offset, schema.Quantity) {
}
func (c *recordingCallbacks) OnTick(schema.TickerIndex, schema.Price) {}
func (c *recordingCallbacks) OnOrderAccepted(engineOrderID, _ uint64) {
	c.accepted <- engineOrderID
}
func (c *recordingCallbacks) OnOrderRejected(engineOrderID uint64, _ schema.ErrorCode) {
	c.rejected <- engineOrderID
}
func (c *recordingCallbacks) OnOrderTraded(_ uint64, _ schema.TradeType, qty schema.Quantity, _ schema.Price) {
	c.traded <- qty
}
func (c *recordingCallbacks) OnOrderCanceled(_ uint64, canceledQty schema.Quantity) {
	c.canceled <- canceledQty
}
func (c *recordingCallbacks) OnOrderCancelRejected(engineOrderID uint64) {
	c.rejected <- engineOrderID
}

func recv[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for callback")
		var zero T
		return zero
	}
}

func TestSendOrderFillsImmediatelyFromAGoroutine(t *testing.T) {
	cb := newRecordingCallbacks()
	adapter, err := New(nil, cb)
	require.NoError(t, err)

	req := schema.OrderReq{EngineOrderID: 1, TickerIndex: 1, Volume: 10, Price: 100}
	require.True(t, adapter.SendOrder(req, schema.NewStrategyID("s1")))

	acceptedID := recv(t, cb.accepted)
	if acceptedID != 1 {
		t.Fatalf("expected engine_order_id 1, got %d", acceptedID)
	}
	qty := recv(t, cb.traded)
	if qty != 10 {
		t.Fatalf("expected full fill of 10, got %d", qty)
	}
}

func TestSendOrderRejectsConfiguredTicker(t *testing.T) {
	cb := newRecordingCallbacks()
	cfg, err := json.Marshal(Config{RejectTickers: []schema.TickerIndex{1}})
	require.NoError(t, err)
	adapter, err := New(cfg, cb)
	require.NoError(t, err)

	req := schema.OrderReq{EngineOrderID: 1, TickerIndex: 1, Volume: 10, Price: 100}
	if adapter.SendOrder(req, schema.NewStrategyID("s1")) {
		t.Fatal("expected send to fail for a rejected ticker")
	}
}

func TestCancelAfterFillIsRejected(t *testing.T) {
	cb := newRecordingCallbacks()
	adapter, err := New(nil, cb)
	require.NoError(t, err)

	req := schema.OrderReq{EngineOrderID: 1, TickerIndex: 1, Volume: 10, Price: 100}
	require.True(t, adapter.SendOrder(req, schema.NewStrategyID("s1")))
	recv(t, cb.accepted)
	recv(t, cb.traded)

	a := adapter.(*Adapter)
	if a.CancelOrder(1) {
		t.Fatal("expected cancel of an already-filled order to be rejected")
	}
	recv(t, cb.rejected)
}
