package config

import (
	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/db"
	"github.com/mezonai/runtime/types"
)

// RuntimeConfig carries the economic parameters and privileged accounts of the runtime
type RuntimeConfig struct {
	Sudo           types.AccountID
	Treasury       types.AccountID
	MinimumBalance *uint256.Int
}

// runtimeSection is the [runtime] section as written in the ini file
type runtimeSection struct {
	Sudo           string `ini:"sudo"`
	Treasury       string `ini:"treasury"`
	MinimumBalance string `ini:"minimum_balance"`
}

// GenesisAccount is one initial balance, amounts are decimal strings
type GenesisAccount struct {
	Address  string `yaml:"address"`
	Free     string `yaml:"free"`
	Reserved string `yaml:"reserved"`
}

// GenesisConfig holds the configuration from genesis.yml
type GenesisConfig struct {
	Accounts []GenesisAccount `yaml:"accounts"`
}

// ConfigFile is the top-level structure for genesis.yml
type ConfigFile struct {
	Config GenesisConfig `yaml:"config"`
}

// NodeConfig is what the CLI needs besides the runtime parameters
type NodeConfig struct {
	Store       db.StoreConfig `ini:"-"`
	DataDir     string         `ini:"data_dir"`
	MetricsAddr string         `ini:"metrics_addr"`
	MempoolSize int            `ini:"mempool_size"`
	RateLimit   int            `ini:"rate_limit"` // extrinsics per signer per second, 0 for no limit
}
