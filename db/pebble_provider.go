package db

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
)

// PebbleProvider implements IterableProvider on top of a Pebble LSM store
type PebbleProvider struct {
	once sync.Once
	db   *pebble.DB
}

func NewPebbleProvider(directory string) (*PebbleProvider, error) {
	db, err := pebble.Open(directory, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open Pebble: %w", err)
	}
	return &PebbleProvider{db: db}, nil
}

func (p *PebbleProvider) Get(key []byte) ([]byte, error) {
	value, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer closer.Close()

	// value is only valid until closer is closed
	return append([]byte{}, value...), nil
}

func (p *PebbleProvider) GetBatch(keys [][]byte) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		value, err := p.Get(key)
		if err != nil {
			return nil, err
		}
		if value != nil {
			result[string(key)] = value
		}
	}
	return result, nil
}

func (p *PebbleProvider) Put(key, value []byte) error {
	return p.db.Set(key, value, pebble.Sync)
}

func (p *PebbleProvider) Delete(key []byte) error {
	return p.db.Delete(key, pebble.Sync)
}

func (p *PebbleProvider) Has(key []byte) (bool, error) {
	_, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	closer.Close()
	return true, nil
}

func (p *PebbleProvider) Close() error {
	var err error
	p.once.Do(func() {
		err = p.db.Close()
	})
	return err
}

func (p *PebbleProvider) Batch() DatabaseBatch {
	return &PebbleBatch{batch: p.db.NewBatch()}
}

func (p *PebbleProvider) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}

	for iter.First(); iter.Valid(); iter.Next() {
		key := append([]byte{}, iter.Key()...)
		value := append([]byte{}, iter.Value()...)
		if !callback(key, value) {
			break
		}
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return err
	}
	return iter.Close()
}

// prefixUpperBound returns the smallest key greater than every key starting with prefix,
// nil when no such key exists
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// PebbleBatch implements DatabaseBatch. Pebble reports errors per operation,
// the first one is kept and returned by Write.
type PebbleBatch struct {
	batch *pebble.Batch
	err   error
}

func (b *PebbleBatch) Put(key, value []byte) {
	if err := b.batch.Set(key, value, nil); err != nil && b.err == nil {
		b.err = err
	}
}

func (b *PebbleBatch) Delete(key []byte) {
	if err := b.batch.Delete(key, nil); err != nil && b.err == nil {
		b.err = err
	}
}

func (b *PebbleBatch) Write() error {
	if b.err != nil {
		return b.err
	}
	return b.batch.Commit(pebble.Sync)
}

func (b *PebbleBatch) Reset() {
	b.batch.Reset()
	b.err = nil
}

func (b *PebbleBatch) Close() error {
	return b.batch.Close()
}
