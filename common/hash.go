package common

import (
	"errors"

	"golang.org/x/crypto/blake2b"
)

var ErrInvalidHashLength = errors.New("hash must be 32 bytes")

const HashSize = 32

// Hash is a blake2b-256 digest
type Hash [HashSize]byte

var ZeroHash Hash

// Blake2b256 hashes the concatenation of parts
func Blake2b256(parts ...[]byte) Hash {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return EncodeHex(h[:])
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	raw, err := DecodeHex(string(text))
	if err != nil {
		return err
	}
	if len(raw) != HashSize {
		return ErrInvalidHashLength
	}
	copy(h[:], raw)
	return nil
}
