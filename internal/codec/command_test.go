package codec

import (
	"testing"

	"main/internal/schema"
)

func TestNewOrderCommandRoundTrip(t *testing.T) {
	cmd := Command{
		Type:       CmdNewOrder,
		StrategyID: schema.NewStrategyID("strat1"),
		NewOrder: NewOrderPayload{
			UserOrderID: 42,
			TickerIndex: 7,
			Direction:   schema.OrderSideSell,
			Offset:      schema.OffsetCloseToday,
			Type:        schema.OrderTypeLimit,
			Volume:      100,
			Price:       123.45,
			Flags:       1,
			WithoutCheck: true,
		},
	}

	frame := EncodeCommand(nil, cmd)
	if len(frame) != CommandFrameSize {
		t.Fatalf("expected frame size %d, got %d", CommandFrameSize, len(frame))
	}

	magic, ok := Magic(frame)
	if !ok || magic != TraderCmdMagic {
		t.Fatalf("expected magic %#x, got %#x ok=%v", TraderCmdMagic, magic, ok)
	}

	decoded, ok := DecodeCommand(frame)
	if !ok {
		t.Fatal("decode failed")
	}
	if decoded.Type != cmd.Type {
		t.Fatalf("type mismatch: got %v want %v", decoded.Type, cmd.Type)
	}
	if decoded.StrategyID != cmd.StrategyID {
		t.Fatalf("strategy id mismatch: got %v want %v", decoded.StrategyID, cmd.StrategyID)
	}
	if decoded.NewOrder != cmd.NewOrder {
		t.Fatalf("payload mismatch: got %+v want %+v", decoded.NewOrder, cmd.NewOrder)
	}
}

func TestCancelOrderCommandRoundTrip(t *testing.T) {
	cmd := Command{Type: CmdCancelOrder, CancelOrder: CancelOrderPayload{OrderID: 99}}
	frame := EncodeCommand(nil, cmd)
	decoded, ok := DecodeCommand(frame)
	if !ok || decoded.CancelOrder.OrderID != 99 {
		t.Fatalf("cancel order round-trip failed: %+v ok=%v", decoded, ok)
	}
}

func TestCancelTickerCommandRoundTrip(t *testing.T) {
	cmd := Command{Type: CmdCancelTicker, CancelTicker: CancelTickerPayload{TickerIndex: 5}}
	frame := EncodeCommand(nil, cmd)
	decoded, ok := DecodeCommand(frame)
	if !ok || decoded.CancelTicker.TickerIndex != 5 {
		t.Fatalf("cancel ticker round-trip failed: %+v ok=%v", decoded, ok)
	}
}

func TestDecodeCommandTooShort(t *testing.T) {
	if _, ok := DecodeCommand(make([]byte, CommandFrameSize-1)); ok {
		t.Fatal("expected decode to fail on a truncated frame")
	}
}

func TestMagicTooShort(t *testing.T) {
	if _, ok := Magic([]byte{1, 2}); ok {
		t.Fatal("expected Magic to fail on a too-short buffer")
	}
}
