package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/events"
	"github.com/mezonai/runtime/ledger"
	"github.com/mezonai/runtime/logx"
	"github.com/mezonai/runtime/monitoring"
	"github.com/mezonai/runtime/ratelimit"
	"github.com/mezonai/runtime/transaction"
	"github.com/mezonai/runtime/types"
)

var (
	ErrPoolFull    = errors.New("mempool is full")
	ErrDuplicate   = errors.New("extrinsic already known")
	ErrBlacklisted = errors.New("signer is blacklisted")
)

// Validator is the admission check, satisfied by *ledger.Ledger.
type Validator interface {
	ValidateTransaction(ext *transaction.Extrinsic) (*ledger.ValidTransaction, error)
}

type poolEntry struct {
	ext    *transaction.Extrinsic
	hash   common.Hash
	signer types.AccountID
	valid  *ledger.ValidTransaction
	seq    uint64
}

// Mempool holds validated extrinsics until they are picked for a block.
type Mempool struct {
	mu        sync.Mutex
	validator Validator
	dedup     *DedupService
	maxSize   int
	entries   map[common.Hash]*poolEntry
	byNonce   map[string]common.Hash
	blacklist map[types.AccountID]string
	events    *events.EventBus
	limiter   *ratelimit.SignerLimiter
	seq       uint64
}

// NewMempool creates a new, empty mempool.
func NewMempool(maxSize int, validator Validator, dedup *DedupService) *Mempool {
	if dedup == nil {
		dedup = NewDedupService(nil)
	}
	return &Mempool{
		validator: validator,
		dedup:     dedup,
		maxSize:   maxSize,
		entries:   make(map[common.Hash]*poolEntry),
		byNonce:   make(map[string]common.Hash),
		blacklist: make(map[types.AccountID]string),
	}
}

// SetEventBus makes the pool publish every admitted extrinsic to bus.
func (m *Mempool) SetEventBus(bus *events.EventBus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = bus
}

// SetRateLimiter bounds how fast one signer can submit. Rejected submissions still count.
func (m *Mempool) SetRateLimiter(limiter *ratelimit.SignerLimiter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiter = limiter
}

func (m *Mempool) SetBlacklist(blacklist map[types.AccountID]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blacklist = make(map[types.AccountID]string, len(blacklist))
	for id, reason := range blacklist {
		m.blacklist[id] = reason
	}
}

// Add validates ext and pools it. An extrinsic for a (signer, nonce) already pooled only
// replaces the pooled one when it pays a higher priority.
func (m *Mempool) Add(ext *transaction.Extrinsic) (common.Hash, error) {
	hash, err := ext.Hash()
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash extrinsic: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, pooled := m.entries[hash]; pooled || m.dedup.IsDuplicate(hash) {
		monitoring.RecordRejectedExtrinsic(monitoring.ExtrinsicDuplicated)
		return hash, ErrDuplicate
	}
	if signer, ok := ext.Signer(); ok {
		if reason, banned := m.blacklist[signer]; banned {
			monitoring.RecordRejectedExtrinsic(monitoring.ExtrinsicBlacklist)
			return hash, fmt.Errorf("%w: %s", ErrBlacklisted, reason)
		}
		if m.limiter != nil && !m.limiter.Allow(signer) {
			monitoring.RecordRejectedExtrinsic(monitoring.ExtrinsicRateLimit)
			return hash, m.limiter.Err(signer)
		}
	}

	valid, err := m.validator.ValidateTransaction(ext)
	if err != nil {
		return hash, err
	}

	signer, _ := ext.Signer()
	tag := string(ledger.NonceTag(signer, ext.Function.Nonce))
	if prev, ok := m.byNonce[tag]; ok {
		if m.entries[prev].valid.Priority >= valid.Priority {
			monitoring.RecordRejectedExtrinsic(monitoring.ExtrinsicDuplicated)
			return hash, fmt.Errorf("%w: nonce %d of %s is pooled with priority %d", ErrDuplicate, ext.Function.Nonce, signer, m.entries[prev].valid.Priority)
		}
		logx.Debug("MEMPOOL", fmt.Sprintf("Replacing %s with %s", prev, hash))
		delete(m.entries, prev)
	} else if m.maxSize > 0 && len(m.entries) >= m.maxSize {
		monitoring.RecordRejectedExtrinsic(monitoring.ExtrinsicPoolFull)
		return hash, ErrPoolFull
	}

	m.seq++
	m.entries[hash] = &poolEntry{ext: ext, hash: hash, signer: signer, valid: valid, seq: m.seq}
	m.byNonce[tag] = hash
	monitoring.RecordPoolSize(len(m.entries))
	logx.Debug("MEMPOOL", fmt.Sprintf("Added %s %s priority=%d", hash, ext, valid.Priority))
	if m.events != nil {
		m.events.Publish(events.NewExtrinsicPooled(hash, valid.Priority))
	}
	return hash, nil
}

// Len returns the number of extrinsics in the mempool.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Mempool) Has(hash common.Hash) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[hash]
	return ok
}

// Batch returns up to max extrinsics without removing them. Higher priority goes first, but
// a signer's extrinsics always come out in nonce order.
func (m *Mempool) Batch(max int) []*transaction.Extrinsic {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 || max <= 0 {
		return nil
	}

	bySigner := make(map[types.AccountID][]*poolEntry)
	for _, e := range m.entries {
		bySigner[e.signer] = append(bySigner[e.signer], e)
	}
	queues := make([][]*poolEntry, 0, len(bySigner))
	for _, q := range bySigner {
		sort.Slice(q, func(i, j int) bool {
			if q[i].ext.Function.Nonce != q[j].ext.Function.Nonce {
				return q[i].ext.Function.Nonce < q[j].ext.Function.Nonce
			}
			return q[i].seq < q[j].seq
		})
		queues = append(queues, q)
	}

	batch := make([]*transaction.Extrinsic, 0, min(max, len(m.entries)))
	for len(batch) < max {
		best := -1
		for i, q := range queues {
			if len(q) == 0 {
				continue
			}
			if best < 0 || before(q[0], queues[best][0]) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		batch = append(batch, queues[best][0].ext)
		queues[best] = queues[best][1:]
	}
	return batch
}

func before(a, b *poolEntry) bool {
	if a.valid.Priority != b.valid.Priority {
		return a.valid.Priority > b.valid.Priority
	}
	return a.seq < b.seq
}

// Remove drops the given extrinsics from the pool.
func (m *Mempool) Remove(hashes []common.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, hash := range hashes {
		m.removeLocked(hash)
	}
	monitoring.RecordPoolSize(len(m.entries))
}

func (m *Mempool) removeLocked(hash common.Hash) {
	e, ok := m.entries[hash]
	if !ok {
		return
	}
	delete(m.entries, hash)
	tag := string(ledger.NonceTag(e.signer, e.ext.Function.Nonce))
	if m.byNonce[tag] == hash {
		delete(m.byNonce, tag)
	}
}

// BlockApplied records the extrinsics of block number as seen, removes them from the pool
// and drops pooled extrinsics that are no longer valid.
func (m *Mempool) BlockApplied(number uint32, exts []*transaction.Extrinsic) error {
	hashes := make([]common.Hash, 0, len(exts))
	for _, ext := range exts {
		hash, err := ext.Hash()
		if err != nil {
			return fmt.Errorf("failed to hash extrinsic: %w", err)
		}
		hashes = append(hashes, hash)
	}
	m.dedup.Add(number, hashes)
	m.dedup.CleanUpOldBlockTxHashes(number)
	m.Remove(hashes)
	m.Revalidate()
	return nil
}

// Revalidate runs every pooled extrinsic through the validator again and returns how many were dropped.
func (m *Mempool) Revalidate() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for hash, e := range m.entries {
		valid, err := m.validator.ValidateTransaction(e.ext)
		if err != nil {
			logx.Debug("MEMPOOL", fmt.Sprintf("Dropping %s: %v", hash, err))
			m.removeLocked(hash)
			dropped++
			continue
		}
		e.valid = valid
	}
	monitoring.RecordPoolSize(len(m.entries))
	return dropped
}
