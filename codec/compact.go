package codec

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

const (
	compactSingleMax = 1<<6 - 1
	compactTwoMax    = 1<<14 - 1
	compactFourMax   = 1<<30 - 1
)

// WriteCompact writes v in SCALE compact form.
//
//	0b00: single byte, v < 2^6
//	0b01: two bytes,   v < 2^14
//	0b10: four bytes,  v < 2^30
//	0b11: upper six bits carry (byte length - 4), followed by v little-endian
func (e *Encoder) WriteCompact(v uint64) {
	if e.err != nil {
		return
	}
	switch {
	case v <= compactSingleMax:
		e.buf = append(e.buf, byte(v<<2))
	case v <= compactTwoMax:
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v<<2)|0b01)
	case v <= compactFourMax:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v<<2)|0b10)
	default:
		n := (bits.Len64(v) + 7) / 8
		if n < 4 {
			n = 4
		}
		e.buf = append(e.buf, byte((n-4)<<2)|0b11)
		for i := 0; i < n; i++ {
			e.buf = append(e.buf, byte(v>>(8*i)))
		}
	}
}

// ReadCompact reads a SCALE compact integer and rejects non-canonical forms.
func (d *Decoder) ReadCompact() (uint64, error) {
	first, err := d.ReadU8()
	if err != nil {
		return 0, err
	}
	switch first & 0b11 {
	case 0b00:
		return uint64(first >> 2), nil
	case 0b01:
		rest, err := d.ReadU8()
		if err != nil {
			return 0, err
		}
		v := uint64(binary.LittleEndian.Uint16([]byte{first, rest})) >> 2
		if v <= compactSingleMax {
			return 0, fmt.Errorf("%w: %d in two-byte mode", ErrInvalidCompact, v)
		}
		return v, nil
	case 0b10:
		rest, err := d.take(3)
		if err != nil {
			return 0, err
		}
		v := uint64(binary.LittleEndian.Uint32([]byte{first, rest[0], rest[1], rest[2]})) >> 2
		if v <= compactTwoMax {
			return 0, fmt.Errorf("%w: %d in four-byte mode", ErrInvalidCompact, v)
		}
		return v, nil
	default:
		n := int(first>>2) + 4
		if n > 8 {
			return 0, fmt.Errorf("%w: %d-byte integer exceeds u64", ErrInvalidCompact, n)
		}
		raw, err := d.take(n)
		if err != nil {
			return 0, err
		}
		var v uint64
		for i := n - 1; i >= 0; i-- {
			v = v<<8 | uint64(raw[i])
		}
		if v <= compactFourMax || (n > 4 && raw[n-1] == 0) {
			return 0, fmt.Errorf("%w: %d in %d-byte mode", ErrInvalidCompact, v, n)
		}
		return v, nil
	}
}
