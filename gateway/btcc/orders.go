package btcc

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"main/internal/schema"
)

func btccSide(side schema.OrderSide) string {
	if side == schema.OrderSideSell {
		return "2"
	}
	return "1"
}

// SendOrder pushes a limit order and returns promptly; the accept or
// reject callback is delivered asynchronously once the HTTP round trip
// completes (§4.6).
func (a *Adapter) SendOrder(req schema.OrderReq, strategyID schema.StrategyID) bool {
	// TODO: support market/FAK/FOK order types once BTCC's endpoints
	// for them are confirmed; the delegator this is grounded on only
	// ever implemented the limit path.
	if req.Type != schema.OrderTypeLimit {
		go a.cb.OnOrderRejected(req.EngineOrderID, schema.ErrRejected)
		return false
	}
	market, ok := a.cfg.Markets[req.TickerIndex]
	if !ok {
		go a.cb.OnOrderRejected(req.EngineOrderID, schema.ErrInvalidContract)
		return false
	}
	go a.placeOrder(req, market)
	return true
}

func (a *Adapter) placeOrder(req schema.OrderReq, market string) {
	body := map[string]string{
		"access_id": a.cfg.AccessID,
		"tm":        formatUnix(time.Now()),
		"market":    market,
		"side":      btccSide(req.Direction),
		"price":     strconv.FormatFloat(float64(req.Price), 'f', -1, 64),
		"amount":    strconv.FormatInt(req.Volume, 10),
		"source":    "",
		"option":    "0",
		"client_id": strconv.FormatUint(req.EngineOrderID, 10),
	}

	var data Response[ResponsePlaceLimitOrder]
	if err := a.post("/btcc_api_trade/order/limit", body, &data); err != nil {
		a.cb.OnOrderRejected(req.EngineOrderID, schema.ErrSendFailed)
		return
	}
	if data.Error.Code != 0 {
		a.cb.OnOrderRejected(req.EngineOrderID, schema.ErrRejected)
		return
	}

	brokerOrderID := uint64(data.Data.ID)
	a.trackPending(req.EngineOrderID, brokerOrderID, market)
	a.cb.OnOrderAccepted(req.EngineOrderID, brokerOrderID)

	if deal, ok := parseDecimalScaled(data.Data.DealStock); ok && deal > 0 {
		price, _ := parseDecimalScaled(data.Data.Price)
		a.cb.OnOrderTraded(req.EngineOrderID, schema.TradeTypeSecondaryMarket, schema.Quantity(deal), schema.Price(price))
	}
}

// CancelOrder cancels a live order by its broker id.
func (a *Adapter) CancelOrder(brokerOrderID uint64) bool {
	engineOrderID, o, ok := a.openOrderFor(brokerOrderID)
	if !ok {
		return false
	}
	go a.cancelOrder(engineOrderID, o)
	return true
}

func (a *Adapter) cancelOrder(engineOrderID uint64, o openOrder) {
	body := map[string]string{
		"access_id": a.cfg.AccessID,
		"tm":        formatUnix(time.Now()),
		"market":    o.market,
		"order_id":  strconv.FormatUint(o.brokerOrderID, 10),
	}

	var data Response[ResponseCancelOrder]
	if err := a.post("/btcc_api_trade/order/cancel", body, &data); err != nil || data.Error.Code != 0 {
		a.cb.OnOrderCancelRejected(engineOrderID)
		return
	}

	a.untrack(engineOrderID)
	left, _ := parseDecimalScaled(data.Data.Left)
	a.cb.OnOrderCanceled(engineOrderID, schema.Quantity(left))
}

func (a *Adapter) post(path string, body map[string]string, out any) error {
	payload, err := sonic.ConfigFastest.Marshal(body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.client.Timeout)
	defer cancel()
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("authorization", a.sign(body))

	resp, err := a.client.Do(r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}
	return nil
}

func (a *Adapter) sign(body map[string]string) string {
	pairs := make([]string, 0, len(body)+1)
	for k, v := range body {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, v))
	}
	pairs = append(pairs, fmt.Sprintf("secret_key=%s", a.cfg.SecretKey))
	sort.Strings(pairs)
	paramStr := strings.Join(pairs, "&")
	hash := md5.Sum([]byte(paramStr))
	return hex.EncodeToString(hash[:])
}

// parseDecimalScaled parses a BTCC decimal string field into an int64
// in the same scale the field's magnitude already implies (BTCC quotes
// price/amount as decimal strings; the exact per-market scale factor
// lives in the contract table, not in this response). Callers treat
// the result as scale-1 when no contract lookup is wired in yet.
func parseDecimalScaled(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}
