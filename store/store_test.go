package store

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/block"
	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/db"
	"github.com/mezonai/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T) (*StateStore, *db.MemoryProvider) {
	t.Helper()
	provider := db.NewMemoryProvider()
	s, err := NewStateStore(provider)
	require.NoError(t, err)
	return s, provider
}

func accountID(b byte) types.AccountID {
	var id types.AccountID
	id[0] = b
	return id
}

func TestAccountStoreDefaultsToZeroRecord(t *testing.T) {
	s, provider := newState(t)

	acc, err := s.Accounts.Get(accountID(1))
	require.NoError(t, err)
	assert.True(t, acc.Equal(types.EmptyAccountBalance()))
	assert.Zero(t, provider.Len(), "reading does not create records")
}

func TestAccountStorePutOrReap(t *testing.T) {
	s, provider := newState(t)
	id := accountID(1)

	require.NoError(t, s.Accounts.PutOrReap(id, types.NewAccountBalance(50, 0, 2)))
	exists, err := s.Accounts.Exists(id)
	require.NoError(t, err)
	assert.True(t, exists)

	raw, err := provider.Get(append([]byte(PrefixAccount), id[:]...))
	require.NoError(t, err)
	assert.Len(t, raw, 36)

	require.NoError(t, s.Accounts.PutOrReap(id, types.NewAccountBalance(0, 0, 3)))
	exists, err = s.Accounts.Exists(id)
	require.NoError(t, err)
	assert.False(t, exists, "a record without balance is removed with its nonce")

	// Put keeps nonce-only records
	require.NoError(t, s.Accounts.Put(id, types.NewAccountBalance(0, 0, 4)))
	acc, err := s.Accounts.Get(id)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), acc.Nonce)
}

func TestAccountStoreIterate(t *testing.T) {
	s, _ := newState(t)
	require.NoError(t, s.Accounts.Put(accountID(2), types.NewAccountBalance(20, 0, 0)))
	require.NoError(t, s.Accounts.Put(accountID(1), types.NewAccountBalance(10, 1, 0)))
	require.NoError(t, s.Accounts.SetTotalIssuance(uint256.NewInt(31)))
	require.NoError(t, s.Meta.SetValue(5))

	seen := map[types.AccountID]uint64{}
	require.NoError(t, s.Accounts.Iterate(func(id types.AccountID, acc *types.AccountBalance) bool {
		seen[id] = acc.Free.Uint64()
		return true
	}))
	assert.Equal(t, map[types.AccountID]uint64{accountID(1): 10, accountID(2): 20}, seen)
}

func TestTotalIssuance(t *testing.T) {
	s, _ := newState(t)
	v, err := s.Accounts.TotalIssuance()
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	require.NoError(t, s.Accounts.SetTotalIssuance(uint256.NewInt(120)))
	v, err = s.Accounts.TotalIssuance()
	require.NoError(t, err)
	assert.Equal(t, uint64(120), v.Uint64())
}

func TestStateMetaCells(t *testing.T) {
	s, _ := newState(t)

	_, ok, err := s.Meta.Value()
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, s.Meta.SetValue(42))
	v, ok, err := s.Meta.Value()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(42), v)

	code, err := s.Meta.Code()
	require.NoError(t, err)
	assert.Nil(t, code)
	require.NoError(t, s.Meta.SetCode([]byte{1, 2}))
	code, err = s.Meta.Code()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, code)

	h := block.RawHeader(common.Blake2b256([]byte("p")), 3, [][]byte{{9}})
	require.NoError(t, s.Meta.SetHeader(h))
	got, err := s.Meta.Header()
	require.NoError(t, err)
	assert.Equal(t, h, got)
	require.NoError(t, s.Meta.ClearHeader())
	got, err = s.Meta.Header()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExtrinsicList(t *testing.T) {
	s, provider := newState(t)

	require.NoError(t, s.Meta.ClearExtrinsics())
	list, err := s.Meta.Extrinsics()
	require.NoError(t, err)
	assert.Empty(t, list)
	has, err := provider.Has([]byte(KeyExtrinsics))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.Meta.AppendExtrinsic([]byte{1}))
	require.NoError(t, s.Meta.AppendExtrinsic([]byte{2, 3}))
	list, err = s.Meta.Extrinsics()
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{1}, {2, 3}}, list)
}

func TestStateRootTracksContents(t *testing.T) {
	s, _ := newState(t)
	empty, err := s.Root()
	require.NoError(t, err)
	assert.Equal(t, common.ZeroHash, empty)

	require.NoError(t, s.Accounts.Put(accountID(1), types.NewAccountBalance(10, 0, 0)))
	r1, err := s.Root()
	require.NoError(t, err)
	assert.NotEqual(t, empty, r1)

	// same contents through a different backend history give the same root
	other, _ := newState(t)
	require.NoError(t, other.Accounts.Put(accountID(2), types.NewAccountBalance(1, 0, 0)))
	require.NoError(t, other.Accounts.Put(accountID(1), types.NewAccountBalance(10, 0, 0)))
	require.NoError(t, other.Accounts.Remove(accountID(2)))
	r2, err := other.Root()
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

// repeatingProvider visits every key twice, the way a Redis SCAN is allowed to
type repeatingProvider struct {
	*db.MemoryProvider
}

func (p repeatingProvider) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	return p.MemoryProvider.IteratePrefix(prefix, func(key, value []byte) bool {
		return callback(key, value) && callback(key, value)
	})
}

func TestStateRootIgnoresRepeatedKeys(t *testing.T) {
	s, provider := newState(t)
	require.NoError(t, s.Accounts.Put(accountID(1), types.NewAccountBalance(10, 0, 0)))
	require.NoError(t, s.Accounts.Put(accountID(2), types.NewAccountBalance(20, 5, 1)))
	want, err := s.Root()
	require.NoError(t, err)

	repeating, err := NewStateStore(repeatingProvider{provider})
	require.NoError(t, err)
	pairs, err := repeating.Pairs()
	require.NoError(t, err)
	direct, err := s.Pairs()
	require.NoError(t, err)
	assert.Len(t, pairs, len(direct))

	got, err := repeating.Root()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBlockStore(t *testing.T) {
	bs, err := NewGenericBlockStore(db.NewMemoryProvider())
	require.NoError(t, err)

	_, _, ok := bs.Head()
	assert.False(t, ok)

	b := block.AssembleBlock(block.RawHeader(common.ZeroHash, 1, nil), nil)
	require.NoError(t, bs.AddBlock(b))
	assert.Error(t, bs.AddBlock(b), "duplicate height")

	hash, number, ok := bs.Head()
	require.True(t, ok)
	assert.Equal(t, uint32(1), number)
	want, err := b.Header.Hash()
	require.NoError(t, err)
	assert.Equal(t, want, hash)

	got, err := bs.Block(1)
	require.NoError(t, err)
	assert.Equal(t, b.Header, got.Header)
	missing, err := bs.Block(2)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBlockStoreReloadsHead(t *testing.T) {
	provider := db.NewMemoryProvider()
	bs, err := NewGenericBlockStore(provider)
	require.NoError(t, err)
	require.NoError(t, bs.AddBlock(block.AssembleBlock(block.RawHeader(common.ZeroHash, 7, nil), nil)))

	reopened, err := NewGenericBlockStore(provider)
	require.NoError(t, err)
	_, number, ok := reopened.Head()
	require.True(t, ok)
	assert.Equal(t, uint32(7), number)
}

func TestCreateStoresMemory(t *testing.T) {
	state, chain, err := CreateStores(&db.StoreConfig{Type: db.MemoryStoreType})
	require.NoError(t, err)
	require.NoError(t, chain.AddBlock(block.AssembleBlock(block.RawHeader(common.ZeroHash, 0, nil), nil)))
	root, err := state.Root()
	require.NoError(t, err)
	assert.Equal(t, common.ZeroHash, root, "chain data stays out of the state provider")
}

func TestCreateStoresLevelDB(t *testing.T) {
	state, chain, err := CreateStores(&db.StoreConfig{Type: db.LevelDBStoreType, Directory: t.TempDir()})
	require.NoError(t, err)
	defer chain.MustClose()
	defer state.Provider().Close()

	require.NoError(t, state.Accounts.Put(accountID(1), types.NewAccountBalance(10, 0, 0)))
	acc, err := state.Accounts.Get(accountID(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), acc.Free.Uint64())
}
