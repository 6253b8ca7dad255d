// Package btcc adapts the BTCC spot REST/WebSocket API to the Gateway
// Adapter capability set (C6). The broker protocol itself is an
// external collaborator, out of scope for correctness; only the
// adapter boundary — request signing, response decoding, callback
// translation — is exercised by the engine.
package btcc

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"main/internal/gateway"
	"main/internal/schema"
)

func init() {
	gateway.Register("btcc", New)
}

const (
	baseURL    = "https://spotapi2.btcccdn.com"
	baseURLDev = "https://spot.cryptouat.com:9910"

	wsHost = "spotprice2.btcccdn.com"
	wsPath = "/ws"
)

// Config is the `api: "btcc"` gateway config block (§6 passthrough).
type Config struct {
	AccessID   string                         `json:"accessId"`
	SecretKey  string                         `json:"secretKey"`
	Dev        bool                           `json:"dev"`
	HTTPTimeout time.Duration                 `json:"httpTimeout"`
	Markets    map[schema.TickerIndex]string  `json:"markets"`
	Push       bool                           `json:"push"`
}

// Adapter is the gateway.Gateway implementation for BTCC.
type Adapter struct {
	cfg    Config
	client *http.Client
	cb     gateway.Callbacks
	url    string

	mu      sync.Mutex
	pending map[uint64]openOrder // engineOrderID -> open order, for orders still live

	push *pusher
}

type openOrder struct {
	brokerOrderID uint64
	market        string
}

// New constructs a BTCC adapter; satisfies gateway.Factory.
func New(cfgJSON []byte, cb gateway.Callbacks) (gateway.Gateway, error) {
	var cfg Config
	if len(cfgJSON) > 0 {
		if err := json.Unmarshal(cfgJSON, &cfg); err != nil {
			return nil, err
		}
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	url := baseURL
	if cfg.Dev {
		url = baseURLDev
	}
	a := &Adapter{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		cb:      cb,
		url:     url,
		pending: make(map[uint64]openOrder),
	}
	if cfg.Push {
		a.push = newPusher(cfg.Markets, cb)
	}
	return a, nil
}

func (a *Adapter) Login(ctx context.Context) error {
	if a.push != nil {
		go a.push.run(ctx)
	}
	return nil
}

func (a *Adapter) Logout(ctx context.Context) error {
	if a.push != nil {
		a.push.stop()
	}
	return nil
}

// QueryAccount, QueryPositions and QueryTrades have no BTCC endpoint
// wired yet — the spot balance/position/trade-history endpoints are
// outside what the delegator this adapter is grounded on implements.
func (a *Adapter) QueryAccount(ctx context.Context) error   { return nil }
func (a *Adapter) QueryPositions(ctx context.Context) error { return nil }
func (a *Adapter) QueryTrades(ctx context.Context) error    { return nil }

func (a *Adapter) SkipsPeriodicAccountQuery() bool { return false }

func (a *Adapter) trackPending(engineOrderID, brokerOrderID uint64, market string) {
	a.mu.Lock()
	a.pending[engineOrderID] = openOrder{brokerOrderID: brokerOrderID, market: market}
	a.mu.Unlock()
}

func (a *Adapter) untrack(engineOrderID uint64) {
	a.mu.Lock()
	delete(a.pending, engineOrderID)
	a.mu.Unlock()
}

func (a *Adapter) openOrderFor(brokerOrderID uint64) (uint64, openOrder, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for eng, o := range a.pending {
		if o.brokerOrderID == brokerOrderID {
			return eng, o, true
		}
	}
	return 0, openOrder{}, false
}

func formatUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
