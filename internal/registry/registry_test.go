package registry

import (
	"testing"

	"main/internal/schema"
)

func TestInsertFindErase(t *testing.T) {
	r := New()
	r.Mu.Lock()
	defer r.Mu.Unlock()

	id := r.NextEngineOrderID()
	o := &schema.Order{Req: schema.OrderReq{EngineOrderID: id, TickerIndex: 1, Volume: 10}}
	if err := r.Insert(o); err != nil {
		t.Fatalf("insert failed: %+v", err)
	}
	if err := r.Insert(o); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, ok := r.Find(id)
	if !ok || got != o {
		t.Fatalf("find mismatch: %+v ok=%v", got, ok)
	}

	r.Erase(id)
	if _, ok := r.Find(id); ok {
		t.Fatal("expected order to be gone after erase")
	}
}

func TestNextEngineOrderIDIsMonotonic(t *testing.T) {
	r := New()
	r.Mu.Lock()
	defer r.Mu.Unlock()

	a := r.NextEngineOrderID()
	b := r.NextEngineOrderID()
	if b != a+1 {
		t.Fatalf("expected monotonically increasing ids, got %d then %d", a, b)
	}
}

func TestSnapshotForTickerAndAll(t *testing.T) {
	r := New()
	r.Mu.Lock()
	defer r.Mu.Unlock()

	for i, idx := range []schema.TickerIndex{1, 1, 2} {
		id := r.NextEngineOrderID()
		_ = i
		if err := r.Insert(&schema.Order{Req: schema.OrderReq{EngineOrderID: id, TickerIndex: idx}}); err != nil {
			t.Fatalf("insert failed: %+v", err)
		}
	}

	if got := len(r.SnapshotForTicker(1)); got != 2 {
		t.Fatalf("expected 2 orders for ticker 1, got %d", got)
	}
	if got := len(r.SnapshotAll()); got != 3 {
		t.Fatalf("expected 3 orders total, got %d", got)
	}
}
