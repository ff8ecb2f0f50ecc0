package store

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/mezonai/runtime/block"
	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/db"
	"github.com/mezonai/runtime/logx"
)

// BlockStore keeps authored and imported blocks by number. It must not share a provider
// with the runtime state, since every state key is part of the state root.
type BlockStore interface {
	Block(number uint32) (*block.Block, error)
	HasBlock(number uint32) (bool, error)
	// Head returns the hash and number of the latest stored block, ok is false for an empty chain
	Head() (hash common.Hash, number uint32, ok bool)
	AddBlock(b *block.Block) error
	MustClose()
}

type GenericBlockStore struct {
	provider   db.DatabaseProvider
	mu         sync.RWMutex
	latest     uint32
	latestHash common.Hash
	hasLatest  bool
}

func NewGenericBlockStore(provider db.DatabaseProvider) (*GenericBlockStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	store := &GenericBlockStore{provider: provider}

	// Load existing metadata
	if err := store.loadLatest(); err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	return store, nil
}

func (s *GenericBlockStore) loadLatest() error {
	value, err := s.provider.Get([]byte(PrefixBlockMeta + BlockMetaKeyLatest))
	if err != nil {
		return fmt.Errorf("failed to get latest block: %w", err)
	}
	if value == nil {
		return nil
	}
	if len(value) != 4 {
		return fmt.Errorf("invalid latest block value length: %d", len(value))
	}
	hash, err := s.provider.Get([]byte(PrefixBlockMeta + BlockMetaKeyLatestHdr))
	if err != nil {
		return fmt.Errorf("failed to get latest block hash: %w", err)
	}
	if len(hash) != common.HashSize {
		return fmt.Errorf("invalid latest block hash length: %d", len(hash))
	}

	s.latest = binary.BigEndian.Uint32(value)
	copy(s.latestHash[:], hash)
	s.hasLatest = true
	return nil
}

// numberToBlockKey keeps keys ordered by height
func numberToBlockKey(number uint32) []byte {
	key := make([]byte, len(PrefixBlock)+4)
	copy(key, PrefixBlock)
	binary.BigEndian.PutUint32(key[len(PrefixBlock):], number)
	return key
}

// Block returns nil without error when no block is stored at number
func (s *GenericBlockStore) Block(number uint32) (*block.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.provider.Get(numberToBlockKey(number))
	if err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", number, err)
	}
	if value == nil {
		return nil, nil
	}
	return block.DecodeBlock(value)
}

func (s *GenericBlockStore) HasBlock(number uint32) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider.Has(numberToBlockKey(number))
}

func (s *GenericBlockStore) Head() (common.Hash, uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestHash, s.latest, s.hasLatest
}

// AddBlock stores the block and moves the head to it in one batch
func (s *GenericBlockStore) AddBlock(b *block.Block) error {
	if b == nil || b.Header == nil {
		return fmt.Errorf("block cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	number := b.Header.Number
	key := numberToBlockKey(number)
	exists, err := s.provider.Has(key)
	if err != nil {
		return fmt.Errorf("failed to check block existence: %w", err)
	}
	if exists {
		return fmt.Errorf("block %d already exists", number)
	}

	value, err := b.Bytes()
	if err != nil {
		return fmt.Errorf("failed to encode block: %w", err)
	}
	hash, err := b.Header.Hash()
	if err != nil {
		return fmt.Errorf("failed to hash header: %w", err)
	}

	latest := make([]byte, 4)
	binary.BigEndian.PutUint32(latest, number)

	err = db.WriteBatch(s.provider, func(batch db.DatabaseBatch) error {
		batch.Put(key, value)
		if !s.hasLatest || number >= s.latest {
			batch.Put([]byte(PrefixBlockMeta+BlockMetaKeyLatest), latest)
			batch.Put([]byte(PrefixBlockMeta+BlockMetaKeyLatestHdr), hash[:])
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store block %d: %w", number, err)
	}

	if !s.hasLatest || number >= s.latest {
		s.latest = number
		s.latestHash = hash
		s.hasLatest = true
	}
	logx.Info("BLOCKSTORE", "Added block ", number, " hash ", hash.String())
	return nil
}

// MustClose closes the underlying database provider
func (s *GenericBlockStore) MustClose() {
	if err := s.provider.Close(); err != nil {
		logx.Error("BLOCKSTORE", "Failed to close provider: ", err)
	}
}
