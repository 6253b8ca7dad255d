package schema

import (
	"fmt"
	"math"
)

// Scale is the number of decimal places used by a scaled integer.
// Example: Scale=8 means the integer value is scaled by 1e8.
type Scale int32

// ScaleSpec defines scaling for common numeric fields of a Contract.
type ScaleSpec struct {
	PriceScale    Scale
	QuantityScale Scale
	NotionalScale Scale
	FeeScale      Scale
}

// TickerIndex is the dense, process-local identifier of a Contract.
// It is the key of the Contract Table and the value carried on the wire
// by every command that references an instrument.
type TickerIndex uint32

// ProductClass enumerates the instrument family a Contract belongs to.
type ProductClass uint16

const (
	ProductClassUnknown ProductClass = iota
	ProductClassFuture
	ProductClassOption
	ProductClassEquity
)

// Contract is immutable after it is loaded into a ContractTable; it is
// never mutated at runtime and may be shared by non-owning reference.
type Contract struct {
	Index      TickerIndex
	Ticker     string
	Class      ProductClass
	Exchange   string
	TickSize   Price
	Multiplier int64
	Scale      ScaleSpec
}

// ContractTable is a read-only-after-load mapping from ticker index to
// Contract, populated once before login (§3 "Lifecycle ownership").
type ContractTable struct {
	byIndex     map[TickerIndex]Contract
	byTicker    map[string]TickerIndex
	loaded      bool
}

// NewContractTable creates an empty table ready for loading.
func NewContractTable() *ContractTable {
	return &ContractTable{
		byIndex:  make(map[TickerIndex]Contract),
		byTicker: make(map[string]TickerIndex),
	}
}

// Add registers a Contract. It returns an error once the table has been
// sealed via Seal, or if the ticker index or ticker string collide.
func (t *ContractTable) Add(c Contract) error {
	if t.loaded {
		return fmt.Errorf("contract table: already sealed")
	}
	if c.Ticker == "" {
		return fmt.Errorf("contract table: empty ticker for index %d", c.Index)
	}
	if _, ok := t.byIndex[c.Index]; ok {
		return fmt.Errorf("contract table: duplicate ticker index %d", c.Index)
	}
	if _, ok := t.byTicker[c.Ticker]; ok {
		return fmt.Errorf("contract table: duplicate ticker %q", c.Ticker)
	}
	t.byIndex[c.Index] = c
	t.byTicker[c.Ticker] = c.Index
	return nil
}

// Seal marks the table as loaded; Add fails after Seal to enforce the
// "immutable after load" invariant in code rather than by convention.
func (t *ContractTable) Seal() {
	t.loaded = true
}

// Get looks up a Contract by ticker index.
func (t *ContractTable) Get(index TickerIndex) (Contract, bool) {
	c, ok := t.byIndex[index]
	return c, ok
}

// IndexForTicker resolves a human ticker string to its dense index.
func (t *ContractTable) IndexForTicker(ticker string) (TickerIndex, bool) {
	idx, ok := t.byTicker[ticker]
	return idx, ok
}

// Len returns the number of loaded contracts.
func (t *ContractTable) Len() int {
	return len(t.byIndex)
}

// Range calls fn for every contract in the table. Iteration order is
// unspecified; fn must not mutate the table.
func (t *ContractTable) Range(fn func(Contract) bool) {
	for _, c := range t.byIndex {
		if !fn(c) {
			return
		}
	}
}

// ScalePrice converts a human decimal price into the Contract's scaled
// integer representation, the boundary every command-channel float
// price crosses on its way into an Order (§6).
func (c Contract) ScalePrice(f float64) Price {
	return Price(math.Round(f * math.Pow10(int(c.Scale.PriceScale))))
}
