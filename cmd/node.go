package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/config"
	"github.com/mezonai/runtime/events"
	"github.com/mezonai/runtime/exception"
	"github.com/mezonai/runtime/ledger"
	"github.com/mezonai/runtime/logx"
	"github.com/mezonai/runtime/monitoring"
	"github.com/mezonai/runtime/store"
)

// node is everything a command needs once the config is loaded and the stores are open
type node struct {
	cfg     *config.NodeConfig
	runtime *config.RuntimeConfig
	state   *store.StateStore
	blocks  store.BlockStore
	ledger  *ledger.Ledger
}

func openNode(path string) (*node, error) {
	nodeCfg, err := config.LoadNodeConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load node config %s: %w", path, err)
	}
	runtimeCfg, err := config.LoadRuntimeConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load runtime config %s: %w", path, err)
	}

	if nodeCfg.Store.Directory != "" {
		if err := os.MkdirAll(nodeCfg.Store.Directory, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	state, blocks, err := store.CreateStores(&nodeCfg.Store)
	if err != nil {
		return nil, err
	}
	ld, err := ledger.NewLedger(state, runtimeCfg)
	if err != nil {
		state.Provider().Close()
		blocks.MustClose()
		return nil, err
	}

	return &node{
		cfg:     nodeCfg,
		runtime: runtimeCfg,
		state:   state,
		blocks:  blocks,
		ledger:  ld,
	}, nil
}

func (n *node) Close() {
	if err := n.state.Provider().Close(); err != nil {
		logx.Error("CMD", "Failed to close state store: ", err)
	}
	n.blocks.MustClose()
}

// serveMetrics starts the prometheus endpoint in the background when addr is set
func serveMetrics(addr string) {
	monitoring.InitMetrics()
	if addr == "" {
		return
	}
	exception.SafeGo("MetricsServer", func() {
		if err := monitoring.Serve(addr); err != nil {
			logx.Error("METRICS", "Metrics server stopped: ", err)
		}
	})
}

// logEvents logs every event published on bus until the returned stop func is called.
// stop waits for the events already queued to be logged.
func logEvents(bus *events.EventBus) (stop func()) {
	id, ch := bus.Subscribe()
	done := make(chan struct{})
	exception.SafeGo("EventLogger", func() {
		defer close(done)
		for event := range ch {
			switch e := event.(type) {
			case *events.BlockEvent:
				logx.Info("EVENTS", fmt.Sprintf("%s number=%d hash=%s state_root=%s", e.Type(), e.Number(), e.Hash(), e.StateRoot()))
			case *events.ExtrinsicApplied:
				logx.Info("EVENTS", fmt.Sprintf("%s hash=%s result=%s", e.Type(), e.Hash(), e.Result()))
			default:
				logx.Debug("EVENTS", fmt.Sprintf("%s hash=%s", e.Type(), e.Hash()))
			}
		}
	})
	return func() {
		bus.Unsubscribe(id)
		<-done
	}
}

// readHexLines reads one hex blob per line, skipping blank lines and # comments
func readHexLines(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw, err := common.DecodeHex(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		out = append(out, raw)
	}
	return out, nil
}
