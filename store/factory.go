package store

import (
	"fmt"
	"path/filepath"

	"github.com/mezonai/runtime/db"
)

const (
	stateSubdir = "state"
	chainSubdir = "chain"
)

// StoreFactory take responsibility to create store instances
type StoreFactory struct{}

// NewStoreFactory creates a new store factory
func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

// splitConfig derives the state and chain provider configs from one node store config.
// File backends get two subdirectories, redis gets two namespaces.
func splitConfig(config *db.StoreConfig) (state, chain *db.StoreConfig) {
	s, c := *config, *config
	switch config.Type {
	case db.RedisStoreType:
		s.RedisNamespace = config.RedisNamespace + stateSubdir + ":"
		c.RedisNamespace = config.RedisNamespace + chainSubdir + ":"
	case db.MemoryStoreType:
	default:
		s.Directory = filepath.Join(config.Directory, stateSubdir)
		c.Directory = filepath.Join(config.Directory, chainSubdir)
	}
	return &s, &c
}

// CreateStores opens the runtime state store and the block store described by config
func (sf *StoreFactory) CreateStores(config *db.StoreConfig) (*StateStore, BlockStore, error) {
	if config == nil {
		return nil, nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	stateCfg, chainCfg := splitConfig(config)
	stateProvider, err := db.CreateProvider(stateCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create state provider: %w", err)
	}
	chainProvider, err := db.CreateProvider(chainCfg)
	if err != nil {
		stateProvider.Close()
		return nil, nil, fmt.Errorf("failed to create chain provider: %w", err)
	}

	stateStore, err := NewStateStore(stateProvider)
	if err != nil {
		stateProvider.Close()
		chainProvider.Close()
		return nil, nil, fmt.Errorf("failed to create state store: %w", err)
	}
	blkStore, err := NewGenericBlockStore(chainProvider)
	if err != nil {
		stateProvider.Close()
		chainProvider.Close()
		return nil, nil, fmt.Errorf("failed to create block store: %w", err)
	}
	return stateStore, blkStore, nil
}

// Global factory instance
var globalFactory = NewStoreFactory()

// CreateStores opens both stores using the global factory
func CreateStores(config *db.StoreConfig) (*StateStore, BlockStore, error) {
	return globalFactory.CreateStores(config)
}
