package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mezonai/runtime/block"
	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/config"
	"github.com/mezonai/runtime/db"
	"github.com/mezonai/runtime/ledger"
	"github.com/mezonai/runtime/store"
	"github.com/mezonai/runtime/transaction"
	"github.com/mezonai/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHexLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exts.txt")
	require.NoError(t, os.WriteFile(path, []byte("# header\n0x0102\n\n  0304  \n"), 0o600))

	lines, err := readHexLines(path)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{1, 2}, {3, 4}}, lines)

	require.NoError(t, os.WriteFile(path, []byte("0x01\nzz\n"), 0o600))
	_, err = readHexLines(path)
	assert.ErrorContains(t, err, ":2:")
}

func TestParseCall(t *testing.T) {
	extDest, extAmount, extData = "//bob", "25", "0xbeef"
	defer func() { extDest, extAmount, extData = "", "", "" }()

	call, err := parseCall("transfer")
	require.NoError(t, err)
	transfer, ok := call.(*transaction.CurrencyTransfer)
	require.True(t, ok)
	assert.Equal(t, config.DevAccount("bob"), transfer.Dest)
	assert.Equal(t, uint64(25), transfer.Amount.Uint64())

	call, err = parseCall("upgrade")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xbe, 0xef}, call.(*transaction.SystemUpgrade).Code)

	call, err = parseCall("transfer-all")
	require.NoError(t, err)
	assert.Equal(t, "Currency::TransferAll", call.Name())

	_, err = parseCall("burn")
	assert.Error(t, err)

	extAmount = "-1"
	_, err = parseCall("mint")
	assert.Error(t, err)
}

func TestLoadSigningKey(t *testing.T) {
	defer func() { extSigner, extPrivKeyPath = "", "" }()

	_, err := loadSigningKey()
	assert.Error(t, err)

	extSigner = "alice"
	key, err := loadSigningKey()
	require.NoError(t, err)
	assert.Equal(t, config.DevKey("alice"), key)

	extPrivKeyPath = "key.hex"
	_, err = loadSigningKey()
	assert.Error(t, err)
}

func memoryNode(t *testing.T) *node {
	t.Helper()
	state, blocks, err := store.CreateStores(&db.StoreConfig{Type: db.MemoryStoreType})
	require.NoError(t, err)
	ld, err := ledger.NewLedger(state, nil)
	require.NoError(t, err)
	require.NoError(t, ld.CreateAccountsFromGenesis([]config.GenesisBalance{
		{ID: config.DevAccount("alice"), Balance: types.NewAccountBalance(100, 0, 0)},
	}))
	return &node{state: state, blocks: blocks, ledger: ld}
}

func remark(t *testing.T, nonce uint32) *transaction.Extrinsic {
	t.Helper()
	ext, err := transaction.NewSigned(&transaction.SystemRemark{}, nonce, nil, config.DevKey("alice"))
	require.NoError(t, err)
	return ext
}

func TestBuildBlock(t *testing.T) {
	n := memoryNode(t)

	header, included, err := buildBlock(n, block.RawHeader(common.Hash{}, 1, nil),
		[]*transaction.Extrinsic{remark(t, 0), remark(t, 5)})
	require.NoError(t, err)
	assert.Len(t, included, 1, "the future nonce is left out")
	root, err := n.ledger.StateRoot()
	require.NoError(t, err)
	assert.Equal(t, header.StateRoot, root)

	_, _, err = buildBlock(n, nil, []*transaction.Extrinsic{remark(t, 1)})
	require.Error(t, err)
	after, err := n.ledger.StateRoot()
	require.NoError(t, err)
	assert.Equal(t, root, after, "a failed build leaves the live state alone")

	parent, err := header.Hash()
	require.NoError(t, err)
	header, included, err = buildBlock(n, block.RawHeader(parent, 2, nil), []*transaction.Extrinsic{remark(t, 1)})
	require.NoError(t, err)
	assert.Len(t, included, 1)
	assert.Equal(t, uint32(2), header.Number)
}
