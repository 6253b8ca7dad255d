// Package engine implements the Trading Engine Core (C7): the command
// dispatch loop and the order lifecycle state machine described in
// spec §4.3. It is the component every other package (cmdchannel,
// registry, risk, portfolio, gateway) is wired through.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/cmdchannel"
	"main/internal/codec"
	internalerrors "main/internal/errors"
	"main/internal/gateway"
	"main/internal/obs"
	"main/internal/portfolio"
	"main/internal/recorder"
	"main/internal/registry"
	"main/internal/risk"
	"main/internal/schema"
)

// ErrUnknownCommand is logged (not fatal) when a decoded command carries
// a type the engine does not recognize; §4.1 treats this as a
// per-record failure.
var ErrUnknownCommand = internalerrors.New("engine: unknown command type")

// periodicAccountQueryInterval is thread (3) of §5: query_account every
// 15 seconds unless the gateway is `virtual`.
const periodicAccountQueryInterval = 15 * time.Second

// Engine owns the dispatch loop and the single mutex (shared with
// Registry) that serializes every order-state transition, whether
// driven by the command consumer or a gateway callback thread (§5).
type Engine struct {
	channel    cmdchannel.Channel
	gw         gateway.Gateway
	registry   *registry.Registry
	risk       *risk.Manager
	ledger     *portfolio.Ledger
	contracts  *schema.ContractTable
	marketData *schema.MarketDataSnapshot
	metrics    *obs.Metrics
	wal        *recorder.Writer

	accountID string
	eventSeq  uint64

	stopQuery context.CancelFunc
	wg        sync.WaitGroup
}

// Config bundles the already-constructed collaborators an Engine is
// built from; callers (cmd/engine) assemble these from the loaded
// configuration before calling New.
type Config struct {
	Channel    cmdchannel.Channel
	Gateway    gateway.Gateway
	Registry   *registry.Registry
	Risk       *risk.Manager
	Ledger     *portfolio.Ledger
	Contracts  *schema.ContractTable
	MarketData *schema.MarketDataSnapshot
	Metrics    *obs.Metrics
	Recorder   *recorder.Writer
	AccountID  string
}

// New assembles an Engine from its collaborators. The gateway's
// Callbacks are this Engine's own methods; callers obtain the gateway
// instance via gateway.New(kind, cfg, engine) after constructing the
// Engine, which is why Gateway is set on Engine separately by the
// caller in the two-phase Attach below when a cyclic dependency would
// otherwise be required.
func New(cfg Config) *Engine {
	return &Engine{
		channel:    cfg.Channel,
		gw:         cfg.Gateway,
		registry:   cfg.Registry,
		risk:       cfg.Risk,
		ledger:     cfg.Ledger,
		contracts:  cfg.Contracts,
		marketData: cfg.MarketData,
		metrics:    cfg.Metrics,
		wal:        cfg.Recorder,
		accountID:  cfg.AccountID,
	}
}

// AttachGateway sets the gateway after construction, for callers that
// must build the gateway.Callbacks implementation (this Engine) before
// they can construct the gateway itself via gateway.New.
func (e *Engine) AttachGateway(gw gateway.Gateway) {
	e.gw = gw
}

// Start logs in, runs the risk chain's Init hook, and launches the
// periodic account-query thread (§5 thread 3) unless the gateway
// reports SkipsPeriodicAccountQuery. It does not start the dispatch
// loop; call Run for that, typically in the caller's own goroutine.
func (e *Engine) Start(ctx context.Context) error {
	if e.wal != nil {
		if err := e.wal.Start(ctx); err != nil {
			return internalerrors.Wrap(err, "engine: wal writer start")
		}
	}

	if err := e.gw.Login(ctx); err != nil {
		return internalerrors.Wrap(err, "engine: gateway login")
	}

	deps := risk.Deps{Contracts: e.contracts, MarketData: e.marketData}
	if err := e.risk.Init(deps); err != nil {
		return internalerrors.Wrap(err, "engine: risk init")
	}

	if !e.gw.SkipsPeriodicAccountQuery() {
		queryCtx, cancel := context.WithCancel(ctx)
		e.stopQuery = cancel
		e.wg.Add(1)
		go e.runPeriodicAccountQuery(queryCtx)
	}

	return nil
}

// Close logs out of the gateway, stops the periodic query thread, and
// waits for it to exit. Shutdown is otherwise process termination per
// §5; there is no graceful drain of the command channel.
func (e *Engine) Close() error {
	if e.stopQuery != nil {
		e.stopQuery()
	}
	e.wg.Wait()
	logoutErr := e.gw.Logout(context.Background())
	if e.wal != nil {
		if err := e.wal.Close(); err != nil && logoutErr == nil {
			return internalerrors.Wrap(err, "engine: wal writer close")
		}
	}
	return logoutErr
}

// Run is the dispatch thread (§5 thread 1): pop → dispatch, tight loop
// on the ring, blocking pull on pub/sub, synchronous dispatch on this
// thread, never yielding to the producer.
func (e *Engine) Run(ctx context.Context) error {
	for {
		cmd, err := e.channel.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, cmdchannel.ErrMalformedRecord) {
				logs.Errorf("engine: malformed command record, err: %+v", err)
				continue
			}
			return internalerrors.Wrap(err, "engine: command channel fatal")
		}
		e.dispatch(cmd)
	}
}

func (e *Engine) dispatch(cmd codec.Command) {
	switch cmd.Type {
	case codec.CmdNewOrder:
		e.handleNewOrder(cmd.StrategyID, cmd.NewOrder)
	case codec.CmdCancelOrder:
		e.handleCancelOrder(cmd.CancelOrder.OrderID)
	case codec.CmdCancelTicker:
		e.handleCancelTicker(cmd.CancelTicker.TickerIndex)
	case codec.CmdCancelAll:
		e.handleCancelAll()
	default:
		logs.Errorf("engine: dropping command with unknown type %d, err: %+v", cmd.Type, ErrUnknownCommand)
	}
}

func (e *Engine) runPeriodicAccountQuery(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(periodicAccountQueryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.gw.QueryAccount(ctx); err != nil {
				logs.Errorf("engine: periodic query_account failed, err: %+v", err)
			}
			if err := e.gw.QueryPositions(ctx); err != nil {
				logs.Errorf("engine: periodic query_positions failed, err: %+v", err)
			}
		}
	}
}
