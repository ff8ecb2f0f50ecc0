package merkle

import (
	"testing"

	"github.com/mezonai/runtime/codec"
	"github.com/mezonai/runtime/common"
	"github.com/stretchr/testify/assert"
)

func TestEmptyRootsAreZero(t *testing.T) {
	assert.Equal(t, common.ZeroHash, OrderedRoot(nil))
	assert.Equal(t, common.ZeroHash, StateRoot(nil))
}

func TestOrderedRootSingleLeaf(t *testing.T) {
	e := codec.NewEncoder()
	e.WriteCompact(0)
	want := common.Blake2b256([]byte("leaf"), e.Bytes(), []byte("a"))
	assert.Equal(t, want, OrderedRoot([][]byte{[]byte("a")}))
}

func TestOrderedRootShape(t *testing.T) {
	items := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	leaf := func(i int) common.Hash {
		e := codec.NewEncoder()
		e.WriteCompact(uint64(i))
		return common.Blake2b256([]byte("leaf"), e.Bytes(), items[i])
	}
	l0, l1, l2 := leaf(0), leaf(1), leaf(2)
	left := common.Blake2b256([]byte("node"), l0[:], l1[:])
	want := common.Blake2b256([]byte("node"), left[:], l2[:])
	assert.Equal(t, want, OrderedRoot(items))
}

func TestOrderedRootIsOrderSensitive(t *testing.T) {
	a := OrderedRoot([][]byte{[]byte("x"), []byte("y")})
	b := OrderedRoot([][]byte{[]byte("y"), []byte("x")})
	assert.NotEqual(t, a, b)

	// duplicates in different positions still commit differently
	c := OrderedRoot([][]byte{[]byte("x"), []byte("x")})
	d := OrderedRoot([][]byte{[]byte("x")})
	assert.NotEqual(t, c, d)
}

func TestStateRootIgnoresInputOrder(t *testing.T) {
	pairs := []Pair{
		{Key: []byte("b"), Value: []byte{2}},
		{Key: []byte("a"), Value: []byte{1}},
		{Key: []byte("c"), Value: []byte{3}},
	}
	reversed := []Pair{pairs[2], pairs[1], pairs[0]}
	assert.Equal(t, StateRoot(pairs), StateRoot(reversed))
	assert.Equal(t, []byte("b"), pairs[0].Key, "input slice is not reordered")
}

func TestStateRootSeparatesKeyAndValue(t *testing.T) {
	a := StateRoot([]Pair{{Key: []byte("ab"), Value: []byte("c")}})
	b := StateRoot([]Pair{{Key: []byte("a"), Value: []byte("bc")}})
	assert.NotEqual(t, a, b)

	changed := StateRoot([]Pair{{Key: []byte("ab"), Value: []byte("d")}})
	assert.NotEqual(t, a, changed)
}
