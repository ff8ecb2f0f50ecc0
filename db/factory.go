package db

import (
	"fmt"
)

// StoreType represents the type of store implementation
type StoreType string

const (
	LevelDBStoreType StoreType = "leveldb"
	PebbleStoreType  StoreType = "pebble"
	RocksDBStoreType StoreType = "rocksdb"
	RedisStoreType   StoreType = "redis"
	MemoryStoreType  StoreType = "memory"
)

// StoreConfig holds configuration for creating a provider
type StoreConfig struct {
	// Type specifies which store implementation to use
	Type StoreType `ini:"type" json:"type" yaml:"type"`

	// Directory is the database directory path (for file-based databases)
	Directory string `ini:"directory" json:"directory" yaml:"directory"`

	// Redis connection, only read for the redis type
	RedisAddr      string `ini:"redis_addr" json:"redis_addr" yaml:"redis_addr"`
	RedisDB        int    `ini:"redis_db" json:"redis_db" yaml:"redis_db"`
	RedisNamespace string `ini:"redis_namespace" json:"redis_namespace" yaml:"redis_namespace"`
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	switch sc.Type {
	case "":
		return fmt.Errorf("store type cannot be empty")
	case LevelDBStoreType, PebbleStoreType, RocksDBStoreType:
		if sc.Directory == "" {
			return fmt.Errorf("directory cannot be empty for %s", sc.Type)
		}
	case RedisStoreType:
		if sc.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty")
		}
	case MemoryStoreType:
	default:
		return fmt.Errorf("unsupported store type: %s", sc.Type)
	}
	return nil
}

// CreateProvider creates a database provider based on the configuration
func CreateProvider(config *StoreConfig) (IterableProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch config.Type {
	case LevelDBStoreType:
		p, err := NewLevelDBProvider(config.Directory)
		if err != nil {
			return nil, err
		}
		return p, nil
	case PebbleStoreType:
		p, err := NewPebbleProvider(config.Directory)
		if err != nil {
			return nil, err
		}
		return p, nil
	case RocksDBStoreType:
		return NewRocksDBProvider(config.Directory)
	case RedisStoreType:
		p, err := NewRedisProvider(config.RedisAddr, config.RedisDB, config.RedisNamespace)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return NewMemoryProvider(), nil
	}
}
