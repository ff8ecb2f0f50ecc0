package merkle

import (
	"bytes"
	"sort"

	"github.com/mezonai/runtime/codec"
	"github.com/mezonai/runtime/common"
)

var (
	leafPrefix = []byte("leaf")
	nodePrefix = []byte("node")
)

// Pair is one storage entry
type Pair struct {
	Key   []byte
	Value []byte
}

// OrderedRoot commits to items in the given order. Leaf i is H("leaf" ++ compact(i) ++ item),
// so moving an item changes the root even when the multiset is unchanged.
func OrderedRoot(items [][]byte) common.Hash {
	leaves := make([]common.Hash, len(items))
	for i, item := range items {
		e := codec.NewEncoder()
		e.WriteCompact(uint64(i))
		leaves[i] = common.Blake2b256(leafPrefix, e.Bytes(), item)
	}
	return root(leaves)
}

// StateRoot commits to a key/value set. Input order does not matter.
func StateRoot(pairs []Pair) common.Hash {
	sorted := make([]Pair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Key, sorted[j].Key) < 0
	})

	leaves := make([]common.Hash, len(sorted))
	for i, p := range sorted {
		e := codec.NewEncoder()
		e.WriteBytes(p.Key)
		e.WriteBytes(p.Value)
		leaves[i] = common.Blake2b256(leafPrefix, e.Bytes())
	}
	return root(leaves)
}

func root(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.ZeroHash
	}
	return node(leaves)
}

// node splits at the ceiling of len/2
func node(hashes []common.Hash) common.Hash {
	if len(hashes) == 1 {
		return hashes[0]
	}
	mid := (len(hashes) + 1) / 2
	left := node(hashes[:mid])
	right := node(hashes[mid:])
	return common.Blake2b256(nodePrefix, left[:], right[:])
}
