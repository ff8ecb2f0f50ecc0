package config

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"strings"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/logx"
	"github.com/mezonai/runtime/types"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// DevKey derives a deterministic ed25519 key from a short name, zero padded to a seed.
// Only meant for local chains and tests.
func DevKey(name string) ed25519.PrivateKey {
	seed := make([]byte, ed25519.SeedSize)
	copy(seed, name)
	return ed25519.NewKeyFromSeed(seed)
}

// DevAccount is the account id of DevKey(name)
func DevAccount(name string) types.AccountID {
	var id types.AccountID
	copy(id[:], DevKey(name).Public().(ed25519.PublicKey))
	return id
}

// TreasuryAccount is the fixed treasury id
func TreasuryAccount() types.AccountID {
	var id types.AccountID
	copy(id[:], treasuryTag)
	return id
}

func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Sudo:           DevAccount(DevSudoSeed),
		Treasury:       TreasuryAccount(),
		MinimumBalance: uint256.NewInt(DefaultMinimumBalance),
	}
}

func (c *RuntimeConfig) Validate() error {
	if c.MinimumBalance == nil {
		return fmt.Errorf("minimum balance must be set")
	}
	if c.MinimumBalance.Gt(types.MaxU128) {
		return fmt.Errorf("minimum balance %s exceeds u128", c.MinimumBalance.Dec())
	}
	if c.Sudo == c.Treasury {
		return fmt.Errorf("sudo and treasury must be different accounts")
	}
	return nil
}

// LoadRuntimeConfig reads the [runtime] section of an .ini file. Missing keys keep their defaults.
func LoadRuntimeConfig(path string) (*RuntimeConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	section := &runtimeSection{}
	if err := cfg.Section("runtime").MapTo(section); err != nil {
		return nil, err
	}

	runtimeCfg := DefaultRuntimeConfig()
	if section.Sudo != "" {
		if runtimeCfg.Sudo, err = types.ParseAccountID(section.Sudo); err != nil {
			return nil, fmt.Errorf("invalid sudo account: %w", err)
		}
	}
	if section.Treasury != "" {
		if runtimeCfg.Treasury, err = types.ParseAccountID(section.Treasury); err != nil {
			return nil, fmt.Errorf("invalid treasury account: %w", err)
		}
	}
	if section.MinimumBalance != "" {
		if runtimeCfg.MinimumBalance, err = types.ParseBalance(section.MinimumBalance); err != nil {
			return nil, fmt.Errorf("invalid minimum balance: %w", err)
		}
	}
	if err := runtimeCfg.Validate(); err != nil {
		return nil, err
	}
	logx.Info("CONFIG", "runtime config loaded from ", path, ": sudo=", runtimeCfg.Sudo.String(),
		" treasury=", runtimeCfg.Treasury.String(), " minimum_balance=", runtimeCfg.MinimumBalance.Dec())
	return runtimeCfg, nil
}

// LoadNodeConfig reads the [store] and [node] sections of an .ini file
func LoadNodeConfig(path string) (*NodeConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	nodeCfg := &NodeConfig{
		DataDir:     DefaultDataDir,
		MetricsAddr: DefaultMetricsAddr,
		MempoolSize: DefaultMempoolSize,
	}
	if err := cfg.Section("store").MapTo(&nodeCfg.Store); err != nil {
		return nil, err
	}
	if err := cfg.Section("node").MapTo(nodeCfg); err != nil {
		return nil, err
	}
	if err := nodeCfg.Store.Validate(); err != nil {
		return nil, err
	}
	return nodeCfg, nil
}

// LoadGenesisConfig reads and parses the genesis.yml file
func LoadGenesisConfig(path string) (*GenesisConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, fmt.Errorf("failed to decode genesis %s: %w", path, err)
	}
	logx.Info("CONFIG", "genesis loaded from ", path, " with ", len(cfgFile.Config.Accounts), " accounts")
	return &cfgFile.Config, nil
}

// GenesisBalance is a parsed genesis entry
type GenesisBalance struct {
	ID      types.AccountID
	Balance *types.AccountBalance
}

// Balances parses every genesis entry. Addresses may also be dev names prefixed with "//", e.g. "//alice".
func (g *GenesisConfig) Balances() ([]GenesisBalance, error) {
	out := make([]GenesisBalance, 0, len(g.Accounts))
	for i, acc := range g.Accounts {
		id, err := ResolveAccount(acc.Address)
		if err != nil {
			return nil, fmt.Errorf("genesis account %d: %w", i, err)
		}
		free, err := parseOptionalBalance(acc.Free)
		if err != nil {
			return nil, fmt.Errorf("genesis account %d free: %w", i, err)
		}
		reserved, err := parseOptionalBalance(acc.Reserved)
		if err != nil {
			return nil, fmt.Errorf("genesis account %d reserved: %w", i, err)
		}
		out = append(out, GenesisBalance{
			ID:      id,
			Balance: &types.AccountBalance{Free: free, Reserved: reserved},
		})
	}
	return out, nil
}

// ResolveAccount accepts base58, 0x-hex, or a "//name" dev account
func ResolveAccount(s string) (types.AccountID, error) {
	if name, ok := strings.CutPrefix(s, "//"); ok {
		if name == "" {
			return types.AccountID{}, fmt.Errorf("empty dev account name")
		}
		return DevAccount(name), nil
	}
	return types.ParseAccountID(s)
}

// LoadEd25519PrivKey loads an Ed25519 private key from a file (expects hex encoding).
// A 32 byte seed is accepted as well as the 64 byte expanded key.
func LoadEd25519PrivKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := common.DecodeHex(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, err
	}
	switch len(key) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(key), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(key), nil
	default:
		return nil, fmt.Errorf("invalid private key length %d", len(key))
	}
}

func parseOptionalBalance(s string) (*uint256.Int, error) {
	if strings.TrimSpace(s) == "" {
		return new(uint256.Int), nil
	}
	return types.ParseBalance(strings.TrimSpace(s))
}
