package common

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// EncodeBytesToBase58 encodes bytes directly to base58
func EncodeBytesToBase58(bytes []byte) string {
	return base58.Encode(bytes)
}

// DecodeBase58ToBytes decodes base58 string to bytes
func DecodeBase58ToBytes(base58Str string) ([]byte, error) {
	bytes, err := base58.Decode(base58Str)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base58 string: %w", err)
	}
	return bytes, nil
}

// DecodeBase58Fixed decodes a base58 string that must yield exactly size bytes
func DecodeBase58Fixed(base58Str string, size int) ([]byte, error) {
	bytes, err := DecodeBase58ToBytes(base58Str)
	if err != nil {
		return nil, err
	}
	if len(bytes) != size {
		return nil, fmt.Errorf("base58 value decodes to %d bytes, want %d", len(bytes), size)
	}
	return bytes, nil
}

// DecodeHex accepts an optional 0x prefix
func DecodeHex(hexStr string) ([]byte, error) {
	bytes, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexStr), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex string: %w", err)
	}
	return bytes, nil
}

// EncodeHex returns 0x-prefixed lowercase hex
func EncodeHex(bytes []byte) string {
	return "0x" + hex.EncodeToString(bytes)
}
