package db

import (
	"bytes"
	"sort"
	"sync"
)

// Overlay buffers writes and deletes on top of a base provider. Reads see the buffered
// changes; the base is untouched until Commit. Discard drops everything.
type Overlay struct {
	base IterableProvider

	mu      sync.RWMutex
	writes  map[string][]byte
	deletes map[string]struct{}
}

func NewOverlay(base IterableProvider) *Overlay {
	return &Overlay{
		base:    base,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	o.mu.RLock()
	if value, ok := o.writes[string(key)]; ok {
		o.mu.RUnlock()
		return append([]byte{}, value...), nil
	}
	_, deleted := o.deletes[string(key)]
	o.mu.RUnlock()
	if deleted {
		return nil, nil
	}
	return o.base.Get(key)
}

func (o *Overlay) GetBatch(keys [][]byte) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		value, err := o.Get(key)
		if err != nil {
			return nil, err
		}
		if value != nil {
			result[string(key)] = value
		}
	}
	return result, nil
}

func (o *Overlay) Put(key, value []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.writes[string(key)] = append([]byte{}, value...)
	delete(o.deletes, string(key))
	return nil
}

func (o *Overlay) Delete(key []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.writes, string(key))
	o.deletes[string(key)] = struct{}{}
	return nil
}

func (o *Overlay) Has(key []byte) (bool, error) {
	value, err := o.Get(key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

// Close discards pending changes. The base provider stays open.
func (o *Overlay) Close() error {
	o.Discard()
	return nil
}

// Batch applies its operations to the overlay, not to the base
func (o *Overlay) Batch() DatabaseBatch {
	return &overlayBatch{overlay: o}
}

// IteratePrefix merges the buffered changes with the base and visits keys in ascending order
func (o *Overlay) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	merged := make(map[string][]byte)
	err := o.base.IteratePrefix(prefix, func(key, value []byte) bool {
		merged[string(key)] = append([]byte{}, value...)
		return true
	})
	if err != nil {
		return err
	}

	o.mu.RLock()
	for k := range o.deletes {
		delete(merged, k)
	}
	for k, v := range o.writes {
		if bytes.HasPrefix([]byte(k), prefix) {
			merged[k] = append([]byte{}, v...)
		}
	}
	o.mu.RUnlock()

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !callback([]byte(k), merged[k]) {
			break
		}
	}
	return nil
}

// Pending reports how many keys have buffered changes
func (o *Overlay) Pending() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.writes) + len(o.deletes)
}

// Commit writes all buffered changes to the base in one batch and clears the overlay
func (o *Overlay) Commit() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	err := WriteBatch(o.base, func(batch DatabaseBatch) error {
		for k := range o.deletes {
			batch.Delete([]byte(k))
		}
		for k, v := range o.writes {
			batch.Put([]byte(k), v)
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.writes = make(map[string][]byte)
	o.deletes = make(map[string]struct{})
	return nil
}

// Discard drops all buffered changes
func (o *Overlay) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.writes = make(map[string][]byte)
	o.deletes = make(map[string]struct{})
}

type overlayOp struct {
	key    []byte
	value  []byte
	delete bool
}

type overlayBatch struct {
	overlay *Overlay
	ops     []overlayOp
}

func (b *overlayBatch) Put(key, value []byte) {
	b.ops = append(b.ops, overlayOp{key: append([]byte{}, key...), value: append([]byte{}, value...)})
}

func (b *overlayBatch) Delete(key []byte) {
	b.ops = append(b.ops, overlayOp{key: append([]byte{}, key...), delete: true})
}

func (b *overlayBatch) Write() error {
	b.overlay.mu.Lock()
	defer b.overlay.mu.Unlock()
	for _, op := range b.ops {
		k := string(op.key)
		if op.delete {
			delete(b.overlay.writes, k)
			b.overlay.deletes[k] = struct{}{}
			continue
		}
		b.overlay.writes[k] = op.value
		delete(b.overlay.deletes, k)
	}
	return nil
}

func (b *overlayBatch) Reset() {
	b.ops = b.ops[:0]
}

func (b *overlayBatch) Close() error {
	b.ops = nil
	return nil
}
