package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	ErrUnexpectedEOF    = errors.New("codec: unexpected end of input")
	ErrTrailingBytes    = errors.New("codec: trailing bytes after value")
	ErrInvalidOptionTag = errors.New("codec: invalid option tag")
	ErrU128Overflow     = errors.New("codec: value does not fit in u128")
	ErrInvalidCompact   = errors.New("codec: non-canonical compact integer")
)

// Encodable is implemented by every value that is hashed or persisted.
type Encodable interface {
	EncodeTo(e *Encoder)
}

// Decodable is the inverse of Encodable.
type Decodable interface {
	DecodeFrom(d *Decoder) error
}

// Encode returns the canonical encoding of v.
func Encode(v Encodable) ([]byte, error) {
	e := NewEncoder()
	v.EncodeTo(e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// Decode decodes data into v and fails if any byte is left over.
func Decode(data []byte, v Decodable) error {
	d := NewDecoder(data)
	if err := v.DecodeFrom(d); err != nil {
		return err
	}
	if d.Remaining() > 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingBytes, d.Remaining())
	}
	return nil
}

// Encoder appends canonical encodings to an internal buffer. The first error is sticky,
// subsequent writes are ignored and Err reports it.
type Encoder struct {
	buf []byte
	err error
}

func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 128)}
}

func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Err() error { return e.err }

func (e *Encoder) WriteU8(v uint8) {
	if e.err != nil {
		return
	}
	e.buf = append(e.buf, v)
}

func (e *Encoder) WriteU32(v uint32) {
	if e.err != nil {
		return
	}
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) WriteU64(v uint64) {
	if e.err != nil {
		return
	}
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// WriteU128 writes v as 16 little-endian bytes. A nil value encodes as zero.
func (e *Encoder) WriteU128(v *uint256.Int) {
	if e.err != nil {
		return
	}
	if v == nil {
		v = new(uint256.Int)
	}
	if v[2] != 0 || v[3] != 0 {
		e.err = fmt.Errorf("%w: %s", ErrU128Overflow, v.Dec())
		return
	}
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v[0])
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v[1])
}

// WriteFixed writes raw bytes without a length prefix.
func (e *Encoder) WriteFixed(b []byte) {
	if e.err != nil {
		return
	}
	e.buf = append(e.buf, b...)
}

// WriteBytes writes a compact length followed by b.
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteCompact(uint64(len(b)))
	e.WriteFixed(b)
}

// WriteBytesList writes a compact count followed by every item as WriteBytes.
func (e *Encoder) WriteBytesList(items [][]byte) {
	e.WriteCompact(uint64(len(items)))
	for _, item := range items {
		e.WriteBytes(item)
	}
}

// WriteNested encodes v on its own and writes the result as a byte vector.
func (e *Encoder) WriteNested(v Encodable) {
	if e.err != nil {
		return
	}
	inner := NewEncoder()
	v.EncodeTo(inner)
	if inner.err != nil {
		e.err = inner.err
		return
	}
	e.WriteBytes(inner.buf)
}

// WriteOption writes the option tag; the caller writes the value when present is true.
func (e *Encoder) WriteOption(present bool) {
	if present {
		e.WriteU8(1)
		return
	}
	e.WriteU8(0)
}

// WriteOptionU128 writes nil as None.
func (e *Encoder) WriteOptionU128(v *uint256.Int) {
	e.WriteOption(v != nil)
	if v != nil {
		e.WriteU128(v)
	}
}

// Decoder reads canonical encodings from a byte slice.
type Decoder struct {
	data []byte
	off  int
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining reports how many bytes have not been consumed yet.
func (d *Decoder) Remaining() int { return len(d.data) - d.off }

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	out := d.data[d.off : d.off+n]
	d.off += n
	return out, nil
}

func (d *Decoder) ReadU8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadU32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) ReadU64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) ReadU128() (*uint256.Int, error) {
	b, err := d.take(16)
	if err != nil {
		return nil, err
	}
	return &uint256.Int{binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:]), 0, 0}, nil
}

// ReadFixed returns a copy of the next n bytes.
func (d *Decoder) ReadFixed(n int) ([]byte, error) {
	b, err := d.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadCompact()
	if err != nil {
		return nil, err
	}
	if n > uint64(d.Remaining()) {
		return nil, ErrUnexpectedEOF
	}
	return d.ReadFixed(int(n))
}

func (d *Decoder) ReadBytesList() ([][]byte, error) {
	n, err := d.ReadCompact()
	if err != nil {
		return nil, err
	}
	// every item needs at least its length byte
	if n > uint64(d.Remaining()) {
		return nil, ErrUnexpectedEOF
	}
	if n == 0 {
		return nil, nil
	}
	items := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		item, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (d *Decoder) ReadOption() (bool, error) {
	tag, err := d.ReadU8()
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: 0x%02x", ErrInvalidOptionTag, tag)
	}
}

// ReadOptionU128 returns nil for None.
func (d *Decoder) ReadOptionU128() (*uint256.Int, error) {
	present, err := d.ReadOption()
	if err != nil || !present {
		return nil, err
	}
	return d.ReadU128()
}
