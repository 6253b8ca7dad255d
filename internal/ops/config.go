// Package ops loads the engine's JSON configuration (§6): the fixed set
// of keys the core consumes plus an opaque, gateway-specific passthrough
// blob handed to whichever adapter the `api` field names.
package ops

import (
	"encoding/json"
	"fmt"
	"os"

	"main/internal/risk"
)

// FileConfig mirrors the on-disk JSON layout.
type FileConfig struct {
	API               string          `json:"api"`
	InvestorID        string          `json:"investor_id"`
	AccountID         string          `json:"account_id"`
	KeyOfCmdQueue     uint32          `json:"key_of_cmd_queue"`
	RingCapacity      int             `json:"ring_buffer_capacity"`
	PubSubAddress     string          `json:"pubsub_address"`
	RMSRules          []string        `json:"rms_rules"`
	Risk              risk.Config     `json:"risk"`
	Gateway           json.RawMessage `json:"gateway"`
	WALDir            string          `json:"wal_dir"`
	PyroscopeAddress  string          `json:"pyroscope_address"`
	ControlSocketPath string          `json:"control_socket_path"`
}

// Loaded is the resolved configuration ready for use by cmd/engine.
type Loaded struct {
	API               string
	InvestorID        string
	AccountID         string
	KeyOfCmdQueue     uint32
	RingCapacity      int
	PubSubAddress     string
	RMSRules          []string
	Risk              risk.Config
	Gateway           []byte
	WALDir            string
	PyroscopeAddress  string
	ControlSocketPath string
}

// UsesPubSub reports whether the command channel should fall back to
// pub/sub (§4.1: key_of_cmd_queue == 0 means no shared-memory ring).
func (l Loaded) UsesPubSub() bool {
	return l.KeyOfCmdQueue == 0
}

// Load reads and validates a JSON config file.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	if cfg.API == "" {
		return Loaded{}, fmt.Errorf("ops: api is required")
	}
	if cfg.AccountID == "" {
		return Loaded{}, fmt.Errorf("ops: account_id is required")
	}
	if cfg.KeyOfCmdQueue == 0 && cfg.PubSubAddress == "" {
		return Loaded{}, fmt.Errorf("ops: pubsub_address is required when key_of_cmd_queue is 0")
	}
	return Loaded{
		API:               cfg.API,
		InvestorID:        cfg.InvestorID,
		AccountID:         cfg.AccountID,
		KeyOfCmdQueue:     cfg.KeyOfCmdQueue,
		RingCapacity:      cfg.RingCapacity,
		PubSubAddress:     cfg.PubSubAddress,
		RMSRules:          cfg.RMSRules,
		Risk:              cfg.Risk,
		Gateway:           []byte(cfg.Gateway),
		WALDir:            cfg.WALDir,
		PyroscopeAddress:  cfg.PyroscopeAddress,
		ControlSocketPath: cfg.ControlSocketPath,
	}, nil
}
