package store

import (
	"fmt"

	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/db"
	"github.com/mezonai/runtime/merkle"
)

// StateStore bundles the runtime stores over one provider and commits to its full contents.
type StateStore struct {
	provider db.IterableProvider
	Accounts AccountStore
	Meta     StateMetaStore
}

func NewStateStore(provider db.IterableProvider) (*StateStore, error) {
	accounts, err := NewGenericAccountStore(provider)
	if err != nil {
		return nil, err
	}
	return &StateStore{
		provider: provider,
		Accounts: accounts,
		Meta:     NewGenericStateMetaStore(provider),
	}, nil
}

func (s *StateStore) Provider() db.IterableProvider {
	return s.provider
}

// Pairs returns every key/value pair in storage, each key once even when the
// backend iteration repeats it
func (s *StateStore) Pairs() ([]merkle.Pair, error) {
	var pairs []merkle.Pair
	seen := make(map[string]struct{})
	err := s.provider.IteratePrefix(nil, func(key, value []byte) bool {
		if _, dup := seen[string(key)]; dup {
			return true
		}
		seen[string(key)] = struct{}{}
		pairs = append(pairs, merkle.Pair{Key: key, Value: value})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate state: %w", err)
	}
	return pairs, nil
}

// Root is the state root over the whole provider
func (s *StateStore) Root() (common.Hash, error) {
	pairs, err := s.Pairs()
	if err != nil {
		return common.Hash{}, err
	}
	return merkle.StateRoot(pairs), nil
}
