package engine

import (
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/logs"

	"main/internal/portfolio"
	"main/internal/schema"
)

// OnQueryContract populates the contract table during startup contract
// discovery. A contract that Add refuses (empty or duplicate ticker, or
// a sealed table) is logged and dropped; cmd/engine never seals the table.
func (e *Engine) OnQueryContract(c schema.Contract) {
	if err := e.contracts.Add(c); err != nil {
		logs.Warnf("engine: on_query_contract for %s, err: %+v", c.Ticker, err)
	}
}

// OnQueryAccount overwrites the account snapshot wholesale (§4.5).
func (e *Engine) OnQueryAccount(accountID string, totalAsset, frozen, margin, balance float64) {
	e.ledger.SetAccount(portfolio.Account{
		AccountID:  accountID,
		TotalAsset: decimal.NewFromFloat(totalAsset),
		Frozen:     decimal.NewFromFloat(frozen),
		Margin:     decimal.NewFromFloat(margin),
		Balance:    decimal.NewFromFloat(balance),
	})
}

// OnQueryPosition replaces one leg of a ticker's position, read-modify-
// write under the ledger's own lock so a same-ticker opposite-side
// callback never clobbers the leg it doesn't describe (§4.5).
func (e *Engine) OnQueryPosition(idx schema.TickerIndex, side schema.OrderSide, holdings, ydHoldings int64, costPrice float64) {
	pos, _ := e.ledger.Position(idx)
	pos.TickerIndex = idx

	leg := &pos.Long
	if side == schema.OrderSideSell {
		leg = &pos.Short
	}
	leg.Holdings = schema.Quantity(holdings)
	leg.YdHoldings = schema.Quantity(ydHoldings)
	leg.CostPrice = decimal.NewFromFloat(costPrice)

	e.ledger.SetPosition(pos)
}

// OnQueryTrade replays a historical fill into the portfolio via the
// replay-safe incremental path — query_trades never touches the order
// registry (§4.3 "unknown callbacks").
func (e *Engine) OnQueryTrade(idx schema.TickerIndex, side schema.OrderSide, offset schema.Offset, volume schema.Quantity) {
	e.ledger.UpdateOnQueryTrade(idx, side, offset, volume)
}

// OnTick feeds the market data snapshot risk rules (e.g. the price-band
// check) consult.
func (e *Engine) OnTick(idx schema.TickerIndex, last schema.Price) {
	e.marketData.Update(idx, last)
}
