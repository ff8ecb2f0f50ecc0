package transaction

import (
	"crypto/ed25519"
	"testing"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/codec"
	"github.com/mezonai/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyFor(name string) ed25519.PrivateKey {
	seed := make([]byte, ed25519.SeedSize)
	copy(seed, name)
	return ed25519.NewKeyFromSeed(seed)
}

func idOf(priv ed25519.PrivateKey) types.AccountID {
	var id types.AccountID
	copy(id[:], priv.Public().(ed25519.PublicKey))
	return id
}

func TestCallEncodingLayout(t *testing.T) {
	bob := idOf(keyFor("bob"))

	raw, err := codec.Encode(&CurrencyTransfer{Dest: bob, Amount: uint256.NewInt(7)})
	require.NoError(t, err)
	require.Len(t, raw, 2+32+16)
	assert.Equal(t, byte(PalletCurrency), raw[0])
	assert.Equal(t, byte(1), raw[1])
	assert.Equal(t, bob[:], raw[2:34])
	assert.Equal(t, byte(7), raw[34])

	raw, err = codec.Encode(&SystemSet{Value: 0x01020304})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 2, 4, 3, 2, 1}, raw)
}

func TestDecodeCallVariants(t *testing.T) {
	bob := idOf(keyFor("bob"))
	calls := []Call{
		&SystemRemark{Data: []byte("hi")},
		&SystemSudoRemark{Data: []byte{}},
		&SystemSet{Value: 42},
		&SystemUpgrade{Code: []byte{0xde, 0xad}},
		&CurrencyMint{Dest: bob, Amount: uint256.NewInt(20)},
		&CurrencyTransfer{Dest: bob, Amount: uint256.NewInt(1)},
		&CurrencyTransferAll{Dest: bob},
		&StakingBond{Amount: uint256.NewInt(5)},
	}
	for _, call := range calls {
		raw, err := codec.Encode(call)
		require.NoError(t, err)
		d := codec.NewDecoder(raw)
		got, err := DecodeCall(d)
		require.NoError(t, err, call.Name())
		assert.Equal(t, call.Name(), got.Name())
		assert.Zero(t, d.Remaining())

		again, err := codec.Encode(got)
		require.NoError(t, err)
		assert.Equal(t, raw, again, call.Name())
	}
}

func TestDecodeCallUnknown(t *testing.T) {
	for _, raw := range [][]byte{{0, 9}, {1, 3}, {2, 1}, {7, 0}} {
		_, err := DecodeCall(codec.NewDecoder(raw))
		assert.ErrorIs(t, err, ErrUnknownCall, "input %x", raw)
	}
}

func TestSignedExtrinsicVerifies(t *testing.T) {
	alice := keyFor("alice")
	bob := idOf(keyFor("bob"))

	ext, err := NewSigned(&CurrencyTransfer{Dest: bob, Amount: uint256.NewInt(100)}, 3, uint256.NewInt(2), alice)
	require.NoError(t, err)
	assert.True(t, ext.Verify())

	signer, ok := ext.Signer()
	require.True(t, ok)
	assert.Equal(t, idOf(alice), signer)

	raw, err := ext.Bytes()
	require.NoError(t, err)
	decoded, err := DecodeExtrinsic(raw)
	require.NoError(t, err)
	assert.True(t, decoded.Verify())
	assert.Equal(t, uint32(3), decoded.Function.Nonce)
	assert.Equal(t, uint64(2), decoded.Function.Tip.Uint64())

	h1, err := ext.Hash()
	require.NoError(t, err)
	h2, err := decoded.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestTamperedExtrinsicFailsVerification(t *testing.T) {
	alice := keyFor("alice")
	bob := idOf(keyFor("bob"))

	ext, err := NewSigned(&CurrencyTransfer{Dest: bob, Amount: uint256.NewInt(100)}, 0, nil, alice)
	require.NoError(t, err)

	ext.Function.Nonce = 1
	assert.False(t, ext.Verify(), "nonce is covered by the signature")

	ext.Function.Nonce = 0
	ext.Function.Tip = uint256.NewInt(0)
	assert.False(t, ext.Verify(), "Some(0) and None encode differently")

	ext.Function.Tip = nil
	ext.Signature.Signer = bob
	assert.False(t, ext.Verify())
}

func TestUnsignedExtrinsic(t *testing.T) {
	ext := NewUnsigned(&SystemRemark{Data: []byte("x")}, 0, nil)
	assert.False(t, ext.Verify())
	_, ok := ext.Signer()
	assert.False(t, ok)

	raw, err := ext.Bytes()
	require.NoError(t, err)
	assert.Equal(t, byte(0), raw[0])

	decoded, err := DecodeExtrinsic(raw)
	require.NoError(t, err)
	assert.Nil(t, decoded.Signature)
}

func TestDecodeExtrinsicRejectsBadInput(t *testing.T) {
	alice := keyFor("alice")
	ext, err := NewSigned(&SystemSet{Value: 1}, 0, nil, alice)
	require.NoError(t, err)
	raw, err := ext.Bytes()
	require.NoError(t, err)

	_, err = DecodeExtrinsic(append(append([]byte{}, raw...), 0))
	assert.ErrorIs(t, err, codec.ErrTrailingBytes)

	_, err = DecodeExtrinsic(raw[:len(raw)-1])
	assert.ErrorIs(t, err, codec.ErrUnexpectedEOF)

	mortal := append([]byte{}, raw...)
	mortal[1+32+64] = 0x01
	_, err = DecodeExtrinsic(mortal)
	assert.ErrorIs(t, err, ErrInvalidEra)
}
