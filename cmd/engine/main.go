package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	_ "main/gateway/btcc"
	_ "main/gateway/virtual"
	"main/internal/cmdchannel"
	"main/internal/control"
	"main/internal/engine"
	"main/internal/gateway"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/portfolio"
	"main/internal/recorder"
	"main/internal/registry"
	"main/internal/risk"
	"main/internal/schema"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	flag.Parse()

	if *configPath == "" {
		logs.Errorf("engine: -config is required")
		os.Exit(1)
	}

	loaded, err := ops.Load(*configPath)
	if err != nil {
		logs.Errorf("engine: config load failed, err: %+v", err)
		os.Exit(1)
	}

	if loaded.PyroscopeAddress != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "trading-engine." + loaded.AccountID,
			ServerAddress:   loaded.PyroscopeAddress,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			logs.Errorf("engine: pyroscope start failed, err: %+v", err)
		} else {
			defer func() { _ = profiler.Stop() }()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, loaded); err != nil {
		logs.Errorf("engine: exited with error, err: %+v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, loaded ops.Loaded) error {
	contracts := schema.NewContractTable()
	marketData := schema.NewMarketDataSnapshot()
	ledger := portfolio.New()
	reg := registry.New()
	metrics := obs.NewMetrics()

	rules := risk.StandardChain(loaded.Risk, ledger)
	if len(loaded.RMSRules) > 0 {
		built, err := risk.BuildChain(loaded.RMSRules, loaded.Risk, ledger)
		if err != nil {
			return err
		}
		rules = built
	}
	riskMgr := risk.NewManager(loaded.Risk)
	for _, r := range rules {
		riskMgr.Register(r)
	}

	channel, err := openChannel(ctx, loaded)
	if err != nil {
		return err
	}
	defer channel.Close()

	var wal *recorder.Writer
	if loaded.WALDir != "" {
		wal, err = recorder.NewWriter(recorder.DefaultConfig(loaded.WALDir))
		if err != nil {
			return err
		}
	}

	eng := engine.New(engine.Config{
		Channel:    channel,
		Registry:   reg,
		Risk:       riskMgr,
		Ledger:     ledger,
		Contracts:  contracts,
		MarketData: marketData,
		Metrics:    metrics,
		Recorder:   wal,
		AccountID:  loaded.AccountID,
	})

	gw, err := gateway.New(loaded.API, loaded.Gateway, eng)
	if err != nil {
		return err
	}
	eng.AttachGateway(gw)

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logs.Errorf("engine: close failed, err: %+v", err)
		}
	}()

	if loaded.ControlSocketPath != "" {
		if ks := risk.FindKillSwitch(rules); ks != nil {
			ctl, err := control.New(loaded.ControlSocketPath, ks)
			if err != nil {
				return err
			}
			go func() {
				if err := ctl.Serve(ctx); err != nil {
					logs.Errorf("engine: control socket exited, err: %+v", err)
				}
			}()
			defer func() {
				if err := ctl.Close(); err != nil {
					logs.Errorf("engine: control socket close failed, err: %+v", err)
				}
			}()
		} else {
			logs.Warnf("engine: control_socket_path set but rms_rules has no kill_switch entry")
		}
	}

	logs.Infof("engine: running account_id=%s api=%s", loaded.AccountID, loaded.API)
	return eng.Run(ctx)
}

func openChannel(ctx context.Context, loaded ops.Loaded) (cmdchannel.Channel, error) {
	if loaded.UsesPubSub() {
		return cmdchannel.OpenPubSub(ctx, loaded.PubSubAddress, loaded.AccountID)
	}
	ownerTag := uint64(loaded.KeyOfCmdQueue)
	return cmdchannel.OpenRing(loaded.KeyOfCmdQueue, ownerTag, loaded.RingCapacity)
}
