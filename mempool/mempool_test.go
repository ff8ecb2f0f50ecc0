package mempool

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/block"
	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/config"
	"github.com/mezonai/runtime/db"
	"github.com/mezonai/runtime/events"
	"github.com/mezonai/runtime/ledger"
	"github.com/mezonai/runtime/ratelimit"
	"github.com/mezonai/runtime/store"
	"github.com/mezonai/runtime/transaction"
	"github.com/mezonai/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	state, err := store.NewStateStore(db.NewMemoryProvider())
	require.NoError(t, err)
	l, err := ledger.NewLedger(state, nil)
	require.NoError(t, err)
	require.NoError(t, l.CreateAccountsFromGenesis([]config.GenesisBalance{
		{ID: config.DevAccount("alice"), Balance: types.NewAccountBalance(1000, 0, 0)},
		{ID: config.DevAccount("bob"), Balance: types.NewAccountBalance(1000, 0, 0)},
	}))
	return l
}

func remark(t *testing.T, name string, nonce uint32, tip uint64) *transaction.Extrinsic {
	t.Helper()
	var tipValue *uint256.Int
	if tip > 0 {
		tipValue = uint256.NewInt(tip)
	}
	ext, err := transaction.NewSigned(&transaction.SystemRemark{Data: []byte(name)}, nonce, tipValue, config.DevKey(name))
	require.NoError(t, err)
	return ext
}

func TestMempool_AddValidates(t *testing.T) {
	mp := NewMempool(10, newTestLedger(t), nil)

	_, err := mp.Add(remark(t, "alice", 0, 0))
	require.NoError(t, err)

	_, err = mp.Add(transaction.NewUnsigned(&transaction.SystemRemark{}, 0, nil))
	assert.ErrorIs(t, err, ledger.BadProof)

	_, err = mp.Add(remark(t, "alice", 1, 5000))
	assert.ErrorIs(t, err, ledger.Payment)

	assert.Equal(t, 1, mp.Len())
}

func TestMempool_RejectsDuplicates(t *testing.T) {
	mp := NewMempool(10, newTestLedger(t), nil)
	ext := remark(t, "alice", 0, 0)

	hash, err := mp.Add(ext)
	require.NoError(t, err)
	assert.True(t, mp.Has(hash))

	_, err = mp.Add(ext)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMempool_ReplacesSameNonceWithHigherPriority(t *testing.T) {
	mp := NewMempool(10, newTestLedger(t), nil)

	low, err := mp.Add(remark(t, "alice", 0, 0))
	require.NoError(t, err)

	sameTip, err := transaction.NewSigned(&transaction.SystemRemark{Data: []byte("other")}, 0, nil, config.DevKey("alice"))
	require.NoError(t, err)
	_, err = mp.Add(sameTip)
	assert.ErrorIs(t, err, ErrDuplicate)

	high, err := mp.Add(remark(t, "alice", 0, 20))
	require.NoError(t, err)
	assert.False(t, mp.Has(low))
	assert.True(t, mp.Has(high))
	assert.Equal(t, 1, mp.Len())
}

func TestMempool_Full(t *testing.T) {
	mp := NewMempool(2, newTestLedger(t), nil)
	_, err := mp.Add(remark(t, "alice", 0, 0))
	require.NoError(t, err)
	_, err = mp.Add(remark(t, "alice", 1, 0))
	require.NoError(t, err)
	_, err = mp.Add(remark(t, "bob", 0, 0))
	assert.ErrorIs(t, err, ErrPoolFull)
}

func TestMempool_BatchOrdering(t *testing.T) {
	mp := NewMempool(10, newTestLedger(t), nil)

	aliceFirst := remark(t, "alice", 0, 0)
	aliceSecond := remark(t, "alice", 1, 50)
	bobFirst := remark(t, "bob", 0, 10)
	bobSecond := remark(t, "bob", 1, 0)
	// added out of nonce order on purpose
	for _, ext := range []*transaction.Extrinsic{aliceSecond, aliceFirst, bobSecond, bobFirst} {
		_, err := mp.Add(ext)
		require.NoError(t, err)
	}

	batch := mp.Batch(10)
	require.Len(t, batch, 4)
	assert.Equal(t, []*transaction.Extrinsic{bobFirst, aliceFirst, aliceSecond, bobSecond}, batch)

	assert.Len(t, mp.Batch(2), 2)
	assert.Nil(t, mp.Batch(0))
	assert.Equal(t, 4, mp.Len(), "batch does not remove")
}

func TestMempool_BatchAppliesCleanly(t *testing.T) {
	l := newTestLedger(t)
	mp := NewMempool(10, l, nil)
	for _, ext := range []*transaction.Extrinsic{remark(t, "alice", 1, 30), remark(t, "alice", 0, 0), remark(t, "bob", 0, 20)} {
		_, err := mp.Add(ext)
		require.NoError(t, err)
	}

	require.NoError(t, l.InitializeBlock(block.RawHeader(common.Hash{}, 1, nil)))
	batch := mp.Batch(10)
	for _, ext := range batch {
		res, err := l.ApplyExtrinsic(ext)
		require.NoError(t, err)
		assert.True(t, res.Succeeded(), res.String())
	}
	_, err := l.FinalizeBlock()
	require.NoError(t, err)

	require.NoError(t, mp.BlockApplied(1, batch))
	assert.Zero(t, mp.Len())

	_, err = mp.Add(batch[0])
	assert.ErrorIs(t, err, ErrDuplicate, "included extrinsics are remembered")
}

func TestMempool_RevalidateDropsStale(t *testing.T) {
	l := newTestLedger(t)
	mp := NewMempool(10, l, nil)

	pooled := remark(t, "alice", 0, 0)
	_, err := mp.Add(pooled)
	require.NoError(t, err)

	require.NoError(t, l.InitializeBlock(block.RawHeader(common.Hash{}, 1, nil)))
	included := remark(t, "alice", 0, 1)
	res, err := l.ApplyExtrinsic(included)
	require.NoError(t, err)
	require.True(t, res.IsIncluded())
	_, err = l.FinalizeBlock()
	require.NoError(t, err)

	assert.Equal(t, 1, mp.Revalidate())
	assert.Zero(t, mp.Len())
}

func TestMempool_Remove(t *testing.T) {
	mp := NewMempool(10, newTestLedger(t), nil)
	hash, err := mp.Add(remark(t, "alice", 0, 0))
	require.NoError(t, err)

	mp.Remove([]common.Hash{hash, {}})
	assert.Zero(t, mp.Len())

	_, err = mp.Add(remark(t, "alice", 0, 0))
	assert.NoError(t, err, "removed without inclusion can come back")
}

func TestMempool_Blacklist(t *testing.T) {
	mp := NewMempool(10, newTestLedger(t), nil)
	mp.SetBlacklist(map[types.AccountID]string{config.DevAccount("bob"): "spam"})

	_, err := mp.Add(remark(t, "bob", 0, 0))
	assert.ErrorIs(t, err, ErrBlacklisted)
	_, err = mp.Add(remark(t, "alice", 0, 0))
	assert.NoError(t, err)
}

func TestMempool_PublishesPooled(t *testing.T) {
	mp := NewMempool(10, newTestLedger(t), nil)
	bus := events.NewEventBus()
	mp.SetEventBus(bus)
	_, ch := bus.Subscribe()

	hash, err := mp.Add(remark(t, "alice", 0, 9))
	require.NoError(t, err)
	_, err = mp.Add(remark(t, "alice", 0, 9))
	require.Error(t, err)

	require.Len(t, ch, 1)
	pooled := (<-ch).(*events.ExtrinsicPooled)
	assert.Equal(t, hash, pooled.Hash())
	assert.Equal(t, uint64(9), pooled.Priority())
}

func TestMempool_RateLimit(t *testing.T) {
	mp := NewMempool(10, newTestLedger(t), nil)
	limiter := ratelimit.NewSignerLimiter(&ratelimit.Config{MaxPerWindow: 2, WindowSize: time.Hour})
	defer limiter.Stop()
	mp.SetRateLimiter(limiter)

	_, err := mp.Add(remark(t, "alice", 0, 0))
	require.NoError(t, err)
	_, err = mp.Add(remark(t, "alice", 1, 0))
	require.NoError(t, err)

	_, err = mp.Add(remark(t, "alice", 2, 0))
	var limited *ratelimit.RateLimitError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, config.DevAccount("alice"), limited.Signer)

	_, err = mp.Add(remark(t, "bob", 0, 0))
	assert.NoError(t, err)
	assert.Equal(t, 3, mp.Len())
}
