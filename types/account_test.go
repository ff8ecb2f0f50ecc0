package types

import (
	"crypto/ed25519"
	"testing"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountIDTextForms(t *testing.T) {
	pub := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize)).Public().(ed25519.PublicKey)
	var id AccountID
	copy(id[:], pub)

	parsed, err := ParseAccountID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	fromHex, err := ParseAccountID("0x" + "00000000000000000000000000000000000000000000000000000000000000ff")
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), fromHex[31])

	_, err = ParseAccountID("0x0102")
	assert.Error(t, err)
	_, err = ParseAccountID("not-base58-0OIl")
	assert.Error(t, err)
}

func TestAccountBalanceEncoding(t *testing.T) {
	acc := NewAccountBalance(100, 5, 3)
	raw, err := codec.Encode(acc)
	require.NoError(t, err)
	assert.Len(t, raw, 16+16+4)
	assert.Equal(t, byte(100), raw[0])
	assert.Equal(t, byte(5), raw[16])
	assert.Equal(t, byte(3), raw[32])

	var decoded AccountBalance
	require.NoError(t, codec.Decode(raw, &decoded))
	assert.True(t, acc.Equal(&decoded), "got %s", decoded.String())
}

func TestHasNoBalance(t *testing.T) {
	assert.True(t, EmptyAccountBalance().HasNoBalance())
	assert.True(t, NewAccountBalance(0, 0, 7).HasNoBalance())
	assert.False(t, NewAccountBalance(0, 1, 0).HasNoBalance())
	assert.False(t, NewAccountBalance(1, 0, 0).HasNoBalance())
}

func TestCheckedArithmetic(t *testing.T) {
	sum, ok := CheckedAdd(uint256.NewInt(2), uint256.NewInt(3))
	require.True(t, ok)
	assert.Equal(t, uint64(5), sum.Uint64())

	_, ok = CheckedAdd(MaxU128, uint256.NewInt(1))
	assert.False(t, ok)

	diff, ok := CheckedSub(uint256.NewInt(5), uint256.NewInt(5))
	require.True(t, ok)
	assert.True(t, diff.IsZero())

	_, ok = CheckedSub(uint256.NewInt(4), uint256.NewInt(5))
	assert.False(t, ok)
}

func TestParseBalance(t *testing.T) {
	v, err := ParseBalance("340282366920938463463374607431768211455")
	require.NoError(t, err)
	assert.True(t, v.Eq(MaxU128))

	_, err = ParseBalance("340282366920938463463374607431768211456")
	assert.Error(t, err)
	_, err = ParseBalance("-1")
	assert.Error(t, err)

	assert.Equal(t, uint64(1<<63), SaturatingUint64(uint256.NewInt(1<<63)))
	assert.Equal(t, ^uint64(0), SaturatingUint64(MaxU128))
}
