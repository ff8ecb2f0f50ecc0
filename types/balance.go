package types

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// MaxU128 is the largest representable balance.
var MaxU128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// CheckedAdd returns a+b, or ok=false when the sum exceeds u128.
func CheckedAdd(a, b *uint256.Int) (*uint256.Int, bool) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow || sum.Gt(MaxU128) {
		return nil, false
	}
	return sum, true
}

// CheckedSub returns a-b, or ok=false when b > a.
func CheckedSub(a, b *uint256.Int) (*uint256.Int, bool) {
	if a.Lt(b) {
		return nil, false
	}
	return new(uint256.Int).Sub(a, b), true
}

// SaturatingUint64 clamps v to the uint64 range.
func SaturatingUint64(v *uint256.Int) uint64 {
	if v == nil {
		return 0
	}
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}

// ParseBalance parses a decimal u128.
func ParseBalance(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", s, err)
	}
	if v.Gt(MaxU128) {
		return nil, fmt.Errorf("balance %s exceeds u128", s)
	}
	return v, nil
}
