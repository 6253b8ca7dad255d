package schema

import "sync"

// MarketDataSnapshot holds the last-seen tick per ticker index. It is
// consulted by risk rules (e.g. price-band checks) and updated from the
// gateway's market-data callback; the engine core never blocks on it.
type MarketDataSnapshot struct {
	mu    sync.RWMutex
	ticks map[TickerIndex]Price
}

// NewMarketDataSnapshot creates an empty snapshot.
func NewMarketDataSnapshot() *MarketDataSnapshot {
	return &MarketDataSnapshot{ticks: make(map[TickerIndex]Price)}
}

// Update records the latest price observed for a ticker.
func (s *MarketDataSnapshot) Update(idx TickerIndex, last Price) {
	s.mu.Lock()
	s.ticks[idx] = last
	s.mu.Unlock()
}

// Last returns the latest known price for a ticker, if any.
func (s *MarketDataSnapshot) Last(idx TickerIndex) (Price, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.ticks[idx]
	return p, ok
}
