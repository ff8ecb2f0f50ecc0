package mempool

import (
	"sync"

	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/logx"
	"github.com/mezonai/runtime/store"
)

const (
	DEDUP_BLOCK_GAP = 200
)

// DedupService remembers the hashes of extrinsics included in the last DEDUP_BLOCK_GAP blocks.
type DedupService struct {
	mu                  sync.RWMutex
	txDedupHashSet      map[common.Hash]struct{}
	blockTxDedupHashSet map[uint32]map[common.Hash]struct{}

	bs store.BlockStore
}

func NewDedupService(bs store.BlockStore) *DedupService {
	return &DedupService{
		txDedupHashSet:      make(map[common.Hash]struct{}),
		blockTxDedupHashSet: make(map[uint32]map[common.Hash]struct{}),
		bs:                  bs,
	}
}

// LoadTxHashes warms the set from the stored chain up to latest.
func (ds *DedupService) LoadTxHashes(latest uint32) {
	if ds.bs == nil || latest < 1 {
		return
	}

	start := uint32(1)
	if latest > DEDUP_BLOCK_GAP {
		start = latest - DEDUP_BLOCK_GAP + 1
	}

	for number := start; number <= latest; number++ {
		b, err := ds.bs.Block(number)
		if err != nil {
			logx.Error("DEDUP SERVICE:LOAD TX HASHES", "Error: ", err)
			continue
		}
		if b == nil {
			continue
		}
		hashes := make([]common.Hash, 0, len(b.Extrinsics))
		for _, ext := range b.Extrinsics {
			hash, err := ext.Hash()
			if err != nil {
				logx.Error("DEDUP SERVICE:LOAD TX HASHES", "Error: ", err)
				continue
			}
			hashes = append(hashes, hash)
		}
		ds.Add(number, hashes)
	}
}

func (ds *DedupService) IsDuplicate(txDedupHash common.Hash) bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	_, exists := ds.txDedupHashSet[txDedupHash]
	return exists
}

func (ds *DedupService) Add(number uint32, txDedupHashes []common.Hash) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	for _, txDedupHash := range txDedupHashes {
		ds.txDedupHashSet[txDedupHash] = struct{}{}
		if _, exists := ds.blockTxDedupHashSet[number]; !exists {
			ds.blockTxDedupHashSet[number] = make(map[common.Hash]struct{})
		}
		ds.blockTxDedupHashSet[number][txDedupHash] = struct{}{}
	}
}

// CleanUpOldBlockTxHashes forgets the block that just fell out of the window.
func (ds *DedupService) CleanUpOldBlockTxHashes(number uint32) {
	if number <= DEDUP_BLOCK_GAP {
		return
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()

	oldNumber := number - DEDUP_BLOCK_GAP
	if oldTxDedupHashes, exists := ds.blockTxDedupHashSet[oldNumber]; exists {
		for oldTxDedupHash := range oldTxDedupHashes {
			delete(ds.txDedupHashSet, oldTxDedupHash)
		}
		delete(ds.blockTxDedupHashSet, oldNumber)
	}
}

func (ds *DedupService) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.txDedupHashSet)
}
