package schema

import "testing"

func TestContractTableAddGetSeal(t *testing.T) {
	table := NewContractTable()
	if err := table.Add(Contract{Index: 1, Ticker: "BTCUSDT"}); err != nil {
		t.Fatalf("add failed: %+v", err)
	}
	if err := table.Add(Contract{Index: 1, Ticker: "DUP"}); err == nil {
		t.Fatal("expected duplicate index to fail")
	}
	table.Seal()
	if err := table.Add(Contract{Index: 2, Ticker: "ETHUSDT"}); err == nil {
		t.Fatal("expected Add to fail after Seal")
	}

	c, ok := table.Get(1)
	if !ok || c.Ticker != "BTCUSDT" {
		t.Fatalf("expected BTCUSDT, got %+v ok=%v", c, ok)
	}

	idx, ok := table.IndexForTicker("BTCUSDT")
	if !ok || idx != 1 {
		t.Fatalf("expected index 1, got %d ok=%v", idx, ok)
	}
}

func TestScalePrice(t *testing.T) {
	c := Contract{Scale: ScaleSpec{PriceScale: 2}}
	if got := c.ScalePrice(123.45); got != 12345 {
		t.Fatalf("expected 12345, got %d", got)
	}

	unscaled := Contract{}
	if got := unscaled.ScalePrice(50); got != 50 {
		t.Fatalf("expected an unscaled contract to pass the price through, got %d", got)
	}
}
