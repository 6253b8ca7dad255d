package gateway

import (
	"context"
	"errors"
	"testing"

	"main/internal/schema"
)

type stubGateway struct{}

func (stubGateway) Login(context.Context) error          { return nil }
func (stubGateway) Logout(context.Context) error         { return nil }
func (stubGateway) QueryAccount(context.Context) error   { return nil }
func (stubGateway) QueryPositions(context.Context) error { return nil }
func (stubGateway) QueryTrades(context.Context) error    { return nil }
func (stubGateway) SendOrder(schema.OrderReq, schema.StrategyID) bool { return true }
func (stubGateway) CancelOrder(uint64) bool                          { return true }
func (stubGateway) SkipsPeriodicAccountQuery() bool                  { return false }

func TestRegisterAndNew(t *testing.T) {
	kind := "test-stub-gateway"
	Register(kind, func([]byte, Callbacks) (Gateway, error) {
		return stubGateway{}, nil
	})

	gw, err := New(kind, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if gw == nil {
		t.Fatal("expected a non-nil gateway")
	}
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New("does-not-exist", nil, nil)
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
