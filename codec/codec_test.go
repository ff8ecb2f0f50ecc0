package codec

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactEncoding(t *testing.T) {
	tests := []struct {
		value uint64
		want  []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x04}},
		{63, []byte{0xfc}},
		{64, []byte{0x01, 0x01}},
		{16383, []byte{0xfd, 0xff}},
		{16384, []byte{0x02, 0x00, 0x01, 0x00}},
		{1<<30 - 1, []byte{0xfe, 0xff, 0xff, 0xff}},
		{1 << 30, []byte{0x03, 0x00, 0x00, 0x00, 0x40}},
		{math.MaxUint64, []byte{0x13, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		e := NewEncoder()
		e.WriteCompact(tt.value)
		require.NoError(t, e.Err())
		assert.Equal(t, tt.want, e.Bytes(), "encoding of %d", tt.value)

		got, err := NewDecoder(tt.want).ReadCompact()
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
	}
}

func TestCompactRejectsNonCanonical(t *testing.T) {
	inputs := [][]byte{
		{0x05, 0x00},                   // 1 in two-byte mode
		{0x02, 0x00, 0x00, 0x00},       // 0 in four-byte mode
		{0x03, 0xff, 0xff, 0xff, 0x00}, // fits four-byte mode
		{0x07, 0x00, 0x00, 0x00, 0x40, 0x00},
	}
	for _, in := range inputs {
		_, err := NewDecoder(in).ReadCompact()
		assert.ErrorIs(t, err, ErrInvalidCompact, "input %x", in)
	}
}

func TestU128(t *testing.T) {
	max := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

	e := NewEncoder()
	e.WriteU128(uint256.NewInt(1))
	e.WriteU128(max)
	require.NoError(t, e.Err())
	require.Len(t, e.Bytes(), 32)
	assert.Equal(t, byte(1), e.Bytes()[0])

	d := NewDecoder(e.Bytes())
	one, err := d.ReadU128()
	require.NoError(t, err)
	assert.True(t, one.Eq(uint256.NewInt(1)))
	gotMax, err := d.ReadU128()
	require.NoError(t, err)
	assert.True(t, gotMax.Eq(max))

	tooBig := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	e = NewEncoder()
	e.WriteU128(tooBig)
	e.WriteU8(7)
	assert.ErrorIs(t, e.Err(), ErrU128Overflow)
	assert.Empty(t, e.Bytes(), "writes after an error are dropped")
}

func TestOptionAndBytes(t *testing.T) {
	e := NewEncoder()
	e.WriteOptionU128(nil)
	e.WriteOptionU128(uint256.NewInt(5))
	e.WriteBytes([]byte("hello"))
	e.WriteBytesList([][]byte{{1}, {}, {2, 3}})
	require.NoError(t, e.Err())

	d := NewDecoder(e.Bytes())
	none, err := d.ReadOptionU128()
	require.NoError(t, err)
	assert.Nil(t, none)
	five, err := d.ReadOptionU128()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), five.Uint64())
	hello, err := d.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(hello))
	list, err := d.ReadBytesList()
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{1}, {}, {2, 3}}, list)
	assert.Zero(t, d.Remaining())
}

func TestDecoderErrors(t *testing.T) {
	_, err := NewDecoder([]byte{0x02}).ReadOption()
	assert.ErrorIs(t, err, ErrInvalidOptionTag)

	_, err = NewDecoder([]byte{0x01, 0x02}).ReadU32()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)

	// length prefix claims more bytes than available
	_, err = NewDecoder([]byte{0x10, 0x01}).ReadBytes()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

type pair struct {
	a uint32
	b []byte
}

func (p *pair) EncodeTo(e *Encoder) {
	e.WriteU32(p.a)
	e.WriteBytes(p.b)
}

func (p *pair) DecodeFrom(d *Decoder) error {
	var err error
	if p.a, err = d.ReadU32(); err != nil {
		return err
	}
	p.b, err = d.ReadBytes()
	return err
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	raw, err := Encode(&pair{a: 9, b: []byte{1, 2}})
	require.NoError(t, err)

	var out pair
	require.NoError(t, Decode(raw, &out))
	assert.Equal(t, uint32(9), out.a)

	err = Decode(append(raw, 0xaa), &out)
	assert.ErrorIs(t, err, ErrTrailingBytes)
}

func TestWriteNested(t *testing.T) {
	e := NewEncoder()
	e.WriteNested(&pair{a: 1, b: []byte{9}})
	require.NoError(t, e.Err())
	// compact(6) ++ u32 ++ compact(1) ++ 9
	assert.Equal(t, []byte{0x18, 1, 0, 0, 0, 0x04, 9}, e.Bytes())
}
