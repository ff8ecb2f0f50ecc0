package types

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/codec"
	"github.com/mezonai/runtime/common"
)

const AccountIDSize = 32

// AccountID is the raw ed25519 public key of an account. Its text form is base58.
type AccountID [AccountIDSize]byte

// ParseAccountID accepts base58 or 0x-prefixed hex.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	var raw []byte
	var err error
	if strings.HasPrefix(s, "0x") {
		raw, err = common.DecodeHex(s)
		if err == nil && len(raw) != AccountIDSize {
			err = fmt.Errorf("account id is %d bytes, want %d", len(raw), AccountIDSize)
		}
	} else {
		raw, err = common.DecodeBase58Fixed(s, AccountIDSize)
	}
	if err != nil {
		return id, fmt.Errorf("invalid account id %q: %w", s, err)
	}
	copy(id[:], raw)
	return id, nil
}

func (id AccountID) String() string {
	return common.EncodeBytesToBase58(id[:])
}

func (id AccountID) Bytes() []byte {
	return id[:]
}

func (id AccountID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AccountID) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id AccountID) EncodeTo(e *codec.Encoder) {
	e.WriteFixed(id[:])
}

func (id *AccountID) DecodeFrom(d *codec.Decoder) error {
	raw, err := d.ReadFixed(AccountIDSize)
	if err != nil {
		return err
	}
	copy(id[:], raw)
	return nil
}

// AccountBalance is the persisted record of an account. Absence from storage means the
// zero record.
type AccountBalance struct {
	Free     *uint256.Int `json:"free"`
	Reserved *uint256.Int `json:"reserved"`
	Nonce    uint32       `json:"nonce"`
}

func NewAccountBalance(free, reserved uint64, nonce uint32) *AccountBalance {
	return &AccountBalance{
		Free:     uint256.NewInt(free),
		Reserved: uint256.NewInt(reserved),
		Nonce:    nonce,
	}
}

// EmptyAccountBalance returns the zero record.
func EmptyAccountBalance() *AccountBalance {
	return NewAccountBalance(0, 0, 0)
}

// HasNoBalance reports free == 0 and reserved == 0, the condition under which a drained
// account is removed from storage.
func (a *AccountBalance) HasNoBalance() bool {
	return a.Free.IsZero() && a.Reserved.IsZero()
}

func (a *AccountBalance) Clone() *AccountBalance {
	return &AccountBalance{
		Free:     new(uint256.Int).Set(a.Free),
		Reserved: new(uint256.Int).Set(a.Reserved),
		Nonce:    a.Nonce,
	}
}

func (a *AccountBalance) Equal(other *AccountBalance) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Free.Eq(other.Free) && a.Reserved.Eq(other.Reserved) && a.Nonce == other.Nonce
}

func (a *AccountBalance) String() string {
	return fmt.Sprintf("{free: %s, reserved: %s, nonce: %d}", a.Free.Dec(), a.Reserved.Dec(), a.Nonce)
}

func (a *AccountBalance) EncodeTo(e *codec.Encoder) {
	e.WriteU128(a.Free)
	e.WriteU128(a.Reserved)
	e.WriteU32(a.Nonce)
}

func (a *AccountBalance) DecodeFrom(d *codec.Decoder) error {
	var err error
	if a.Free, err = d.ReadU128(); err != nil {
		return err
	}
	if a.Reserved, err = d.ReadU128(); err != nil {
		return err
	}
	a.Nonce, err = d.ReadU32()
	return err
}
