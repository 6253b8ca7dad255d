package schema

import "testing"

func TestMarketDataSnapshotUpdateAndLast(t *testing.T) {
	md := NewMarketDataSnapshot()

	if _, ok := md.Last(1); ok {
		t.Fatal("expected no tick before the first Update")
	}

	md.Update(1, 12345)
	got, ok := md.Last(1)
	if !ok || got != 12345 {
		t.Fatalf("expected 12345, got %d ok=%v", got, ok)
	}

	md.Update(1, 12400)
	got, _ = md.Last(1)
	if got != 12400 {
		t.Fatalf("expected the latest tick to overwrite the prior one, got %d", got)
	}
}
