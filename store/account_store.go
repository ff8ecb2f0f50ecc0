package store

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/codec"
	"github.com/mezonai/runtime/db"
	"github.com/mezonai/runtime/types"
)

type AccountStore interface {
	// Get returns the zero record for an absent account
	Get(id types.AccountID) (*types.AccountBalance, error)
	Exists(id types.AccountID) (bool, error)
	Put(id types.AccountID, account *types.AccountBalance) error
	// PutOrReap deletes the record instead when both balances are zero
	PutOrReap(id types.AccountID, account *types.AccountBalance) error
	Remove(id types.AccountID) error
	Iterate(fn func(id types.AccountID, account *types.AccountBalance) bool) error

	TotalIssuance() (*uint256.Int, error)
	SetTotalIssuance(v *uint256.Int) error
}

type GenericAccountStore struct {
	dbProvider db.IterableProvider
}

func NewGenericAccountStore(dbProvider db.IterableProvider) (*GenericAccountStore, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	return &GenericAccountStore{
		dbProvider: dbProvider,
	}, nil
}

func (as *GenericAccountStore) Get(id types.AccountID) (*types.AccountBalance, error) {
	data, err := as.dbProvider.Get(as.getDbKey(id))
	if err != nil {
		return nil, fmt.Errorf("could not get account %s from db: %w", id, err)
	}

	// Account doesn't exist
	if data == nil {
		return types.EmptyAccountBalance(), nil
	}

	acc := &types.AccountBalance{}
	if err := codec.Decode(data, acc); err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", id, err)
	}
	return acc, nil
}

func (as *GenericAccountStore) Exists(id types.AccountID) (bool, error) {
	return as.dbProvider.Has(as.getDbKey(id))
}

func (as *GenericAccountStore) Put(id types.AccountID, account *types.AccountBalance) error {
	data, err := codec.Encode(account)
	if err != nil {
		return fmt.Errorf("failed to encode account %s: %w", id, err)
	}
	if err := as.dbProvider.Put(as.getDbKey(id), data); err != nil {
		return fmt.Errorf("failed to write account %s to db: %w", id, err)
	}
	return nil
}

func (as *GenericAccountStore) PutOrReap(id types.AccountID, account *types.AccountBalance) error {
	if account.HasNoBalance() {
		return as.Remove(id)
	}
	return as.Put(id, account)
}

func (as *GenericAccountStore) Remove(id types.AccountID) error {
	if err := as.dbProvider.Delete(as.getDbKey(id)); err != nil {
		return fmt.Errorf("failed to remove account %s: %w", id, err)
	}
	return nil
}

// Iterate visits every stored account. Order depends on the backend.
func (as *GenericAccountStore) Iterate(fn func(id types.AccountID, account *types.AccountBalance) bool) error {
	var decodeErr error
	err := as.dbProvider.IteratePrefix([]byte(PrefixAccount), func(key, value []byte) bool {
		rest := key[len(PrefixAccount):]
		if len(rest) != types.AccountIDSize {
			decodeErr = fmt.Errorf("malformed account key %x", key)
			return false
		}
		var id types.AccountID
		copy(id[:], rest)
		acc := &types.AccountBalance{}
		if err := codec.Decode(value, acc); err != nil {
			decodeErr = fmt.Errorf("failed to decode account %s: %w", id, err)
			return false
		}
		return fn(id, acc)
	})
	if err != nil {
		return err
	}
	return decodeErr
}

// TotalIssuance returns zero when the counter was never written
func (as *GenericAccountStore) TotalIssuance() (*uint256.Int, error) {
	data, err := as.dbProvider.Get([]byte(KeyTotalIssuance))
	if err != nil {
		return nil, fmt.Errorf("could not get total issuance: %w", err)
	}
	if data == nil {
		return new(uint256.Int), nil
	}
	d := codec.NewDecoder(data)
	v, err := d.ReadU128()
	if err != nil || d.Remaining() != 0 {
		return nil, fmt.Errorf("malformed total issuance %x", data)
	}
	return v, nil
}

func (as *GenericAccountStore) SetTotalIssuance(v *uint256.Int) error {
	e := codec.NewEncoder()
	e.WriteU128(v)
	if err := e.Err(); err != nil {
		return fmt.Errorf("failed to encode total issuance: %w", err)
	}
	if err := as.dbProvider.Put([]byte(KeyTotalIssuance), e.Bytes()); err != nil {
		return fmt.Errorf("failed to write total issuance: %w", err)
	}
	return nil
}

func (as *GenericAccountStore) getDbKey(id types.AccountID) []byte {
	key := make([]byte, 0, len(PrefixAccount)+types.AccountIDSize)
	key = append(key, PrefixAccount...)
	return append(key, id[:]...)
}
