// Package portfolio implements the Portfolio & Account Ledger (C4):
// running position and cash state, updated from gateway callbacks and
// startup queries (§4.5).
package portfolio

import (
	"sync"

	"github.com/yanun0323/decimal"

	"main/internal/schema"
)

// Account mirrors the broker's account snapshot (§3). It is a single
// instance overwritten wholesale by periodic gateway query, never
// incrementally patched.
type Account struct {
	AccountID  string
	TotalAsset decimal.Decimal
	Frozen     decimal.Decimal
	Margin     decimal.Decimal
	Balance    decimal.Decimal
}

// Leg is one side (long or short) of a per-ticker position.
type Leg struct {
	Holdings   schema.Quantity
	YdHoldings schema.Quantity
	CostPrice  decimal.Decimal
	Frozen     schema.Quantity
	FloatPnL   decimal.Decimal
}

// Position decomposes a ticker's exposure into long and short legs (§3).
type Position struct {
	TickerIndex schema.TickerIndex
	Long        Leg
	Short       Leg
}

// Ledger owns Account and the Position set, guarded by its own mutex,
// which the engine always takes strictly inside its own mutex (§4.5,
// §5) whenever both are needed in the same critical section.
type Ledger struct {
	mu        sync.Mutex
	account   Account
	positions map[schema.TickerIndex]*Position
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{positions: make(map[schema.TickerIndex]*Position)}
}

// SetAccount replaces the account snapshot wholesale, as delivered by
// query_account.
func (l *Ledger) SetAccount(acc Account) {
	l.mu.Lock()
	l.account = acc
	l.mu.Unlock()
}

// Account returns a copy of the current account snapshot.
func (l *Ledger) Account() Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account
}

// SetPosition replaces a whole leg pair atomically under the ledger's
// own lock (§4.5).
func (l *Ledger) SetPosition(p Position) {
	cp := p
	l.mu.Lock()
	l.positions[p.TickerIndex] = &cp
	l.mu.Unlock()
}

// Position returns a copy of the current position for a ticker.
func (l *Ledger) Position(idx schema.TickerIndex) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[idx]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// UpdateOnQueryTrade is the replay-safe incremental update used only
// during startup, when query_trades replays historical fills into the
// portfolio rather than through the live trade path (§4.5).
func (l *Ledger) UpdateOnQueryTrade(idx schema.TickerIndex, side schema.OrderSide, offset schema.Offset, volume schema.Quantity) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[idx]
	if !ok {
		p = &Position{TickerIndex: idx}
		l.positions[idx] = p
	}
	// A closing trade reduces the opposite leg: selling closes a long.
	legSide := side
	if offset != schema.OffsetOpen {
		legSide = schema.OrderSideSell
		if side == schema.OrderSideSell {
			legSide = schema.OrderSideBuy
		}
	}
	leg := legForSide(p, legSide)
	applyOffset(leg, offset, volume)
}

func legForSide(p *Position, side schema.OrderSide) *Leg {
	if side == schema.OrderSideSell {
		return &p.Short
	}
	return &p.Long
}

func applyOffset(leg *Leg, offset schema.Offset, volume schema.Quantity) {
	switch offset {
	case schema.OffsetOpen:
		leg.Holdings += volume
	case schema.OffsetCloseToday:
		leg.Holdings = clampNonNegative(leg.Holdings - volume)
	case schema.OffsetCloseYesterday:
		leg.YdHoldings = clampNonNegative(leg.YdHoldings - volume)
		leg.Holdings = clampNonNegative(leg.Holdings - volume)
	case schema.OffsetClose:
		closeFromYesterdayThenToday(leg, volume)
	}
}

func closeFromYesterdayThenToday(leg *Leg, volume schema.Quantity) {
	fromYd := volume
	if fromYd > leg.YdHoldings {
		fromYd = leg.YdHoldings
	}
	leg.YdHoldings -= fromYd
	leg.Holdings = clampNonNegative(leg.Holdings - volume)
}

func clampNonNegative(q schema.Quantity) schema.Quantity {
	if q < 0 {
		return 0
	}
	return q
}
