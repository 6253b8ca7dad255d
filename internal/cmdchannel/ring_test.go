package cmdchannel

import (
	"context"
	"errors"
	"testing"
	"time"

	"main/internal/codec"
	"main/internal/schema"
)

func openTestRing(t *testing.T, key uint32, ownerTag uint64, capacity int) *RingChannel {
	t.Helper()
	r, err := OpenRing(key, ownerTag, capacity)
	if err != nil {
		t.Fatalf("OpenRing failed: %+v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRingPushRecvRoundTrip(t *testing.T) {
	r := openTestRing(t, 0xC0FFEE1, 1, 16)

	cmd := codec.Command{Type: codec.CmdCancelOrder, CancelOrder: codec.CancelOrderPayload{OrderID: 7}}
	frame := codec.EncodeCommand(nil, cmd)
	if !r.Push(frame) {
		t.Fatal("expected push to succeed on an empty ring")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := r.Recv(ctx)
	if err != nil {
		t.Fatalf("recv failed: %+v", err)
	}
	if got.Type != codec.CmdCancelOrder || got.CancelOrder.OrderID != 7 {
		t.Fatalf("unexpected command: %+v", got)
	}
}

func TestRingPushReturnsFalseWhenFull(t *testing.T) {
	r := openTestRing(t, 0xC0FFEE2, 1, 2)

	cmd := codec.Command{Type: codec.CmdCancelAll}
	frame := codec.EncodeCommand(nil, cmd)
	if !r.Push(frame) {
		t.Fatal("expected 1st push to succeed")
	}
	if !r.Push(frame) {
		t.Fatal("expected 2nd push to succeed")
	}
	if r.Push(frame) {
		t.Fatal("expected 3rd push to fail: ring capacity is 2")
	}
}

func TestRingRecvBlocksUntilCtxDone(t *testing.T) {
	r := openTestRing(t, 0xC0FFEE3, 1, 16)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := r.Recv(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestRingAttachWithMismatchedOwnerTagFails(t *testing.T) {
	key := uint32(0xC0FFEE4)
	first := openTestRing(t, key, 1, 16)
	_ = first

	_, err := OpenRing(key, 2, 16)
	if !errors.Is(err, ErrOwnerTagMismatch) {
		t.Fatalf("expected ErrOwnerTagMismatch, got %v", err)
	}
}

func TestOpenRingRejectsNonPowerOfTwoCapacity(t *testing.T) {
	if _, err := OpenRing(0xC0FFEE5, 1, 3); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
}

func TestRingResetsOnAttachDroppingStaleReads(t *testing.T) {
	key := uint32(0xC0FFEE6)
	producer := openTestRing(t, key, 1, 16)

	frame := codec.EncodeCommand(nil, codec.Command{
		Type:     codec.CmdNewOrder,
		NewOrder: codec.NewOrderPayload{TickerIndex: schema.TickerIndex(1), Volume: 1, Price: 1},
	})
	if !producer.Push(frame) {
		t.Fatal("expected push to succeed")
	}

	consumer := openTestRing(t, key, 1, 16)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := consumer.Recv(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a fresh attach to reset past the producer's pre-existing write, got %v", err)
	}
}
