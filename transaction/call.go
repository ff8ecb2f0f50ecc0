package transaction

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/codec"
	"github.com/mezonai/runtime/types"
)

var ErrUnknownCall = errors.New("unknown call")

// Pallet is the first byte of an encoded call.
type Pallet uint8

const (
	PalletSystem Pallet = iota
	PalletCurrency
	PalletStaking
)

func (p Pallet) String() string {
	switch p {
	case PalletSystem:
		return "System"
	case PalletCurrency:
		return "Currency"
	case PalletStaking:
		return "Staking"
	default:
		return fmt.Sprintf("Pallet(%d)", uint8(p))
	}
}

// Variant indexes inside each pallet.
const (
	systemRemark uint8 = iota
	systemSudoRemark
	systemSet
	systemUpgrade
)

const (
	currencyMint uint8 = iota
	currencyTransfer
	currencyTransferAll
)

const (
	stakingBond uint8 = iota
)

// Call is one dispatchable operation. The concrete types below are the only implementations.
type Call interface {
	codec.Encodable
	Pallet() Pallet
	Name() string
}

// SystemRemark has no effect beyond the nonce increment.
type SystemRemark struct {
	Data []byte
}

// SystemSudoRemark is a remark restricted to the sudo account.
type SystemSudoRemark struct {
	Data []byte
}

// SystemSet overwrites the global value cell.
type SystemSet struct {
	Value uint32
}

// SystemUpgrade overwrites the runtime code blob. Sudo only.
type SystemUpgrade struct {
	Code []byte
}

// CurrencyMint creates Amount new units in Dest. Sudo only.
type CurrencyMint struct {
	Dest   types.AccountID
	Amount *uint256.Int
}

// CurrencyTransfer moves Amount from the signer to Dest.
type CurrencyTransfer struct {
	Dest   types.AccountID
	Amount *uint256.Int
}

// CurrencyTransferAll moves the whole free balance of the signer to Dest and removes the signer.
type CurrencyTransferAll struct {
	Dest types.AccountID
}

// StakingBond moves Amount from free to reserved.
type StakingBond struct {
	Amount *uint256.Int
}

func (*SystemRemark) Pallet() Pallet        { return PalletSystem }
func (*SystemSudoRemark) Pallet() Pallet    { return PalletSystem }
func (*SystemSet) Pallet() Pallet           { return PalletSystem }
func (*SystemUpgrade) Pallet() Pallet       { return PalletSystem }
func (*CurrencyMint) Pallet() Pallet        { return PalletCurrency }
func (*CurrencyTransfer) Pallet() Pallet    { return PalletCurrency }
func (*CurrencyTransferAll) Pallet() Pallet { return PalletCurrency }
func (*StakingBond) Pallet() Pallet         { return PalletStaking }

func (*SystemRemark) Name() string        { return "System::Remark" }
func (*SystemSudoRemark) Name() string    { return "System::SudoRemark" }
func (*SystemSet) Name() string           { return "System::Set" }
func (*SystemUpgrade) Name() string       { return "System::Upgrade" }
func (*CurrencyMint) Name() string        { return "Currency::Mint" }
func (*CurrencyTransfer) Name() string    { return "Currency::Transfer" }
func (*CurrencyTransferAll) Name() string { return "Currency::TransferAll" }
func (*StakingBond) Name() string         { return "Staking::Bond" }

func writeIndex(e *codec.Encoder, p Pallet, variant uint8) {
	e.WriteU8(uint8(p))
	e.WriteU8(variant)
}

func (c *SystemRemark) EncodeTo(e *codec.Encoder) {
	writeIndex(e, PalletSystem, systemRemark)
	e.WriteBytes(c.Data)
}

func (c *SystemSudoRemark) EncodeTo(e *codec.Encoder) {
	writeIndex(e, PalletSystem, systemSudoRemark)
	e.WriteBytes(c.Data)
}

func (c *SystemSet) EncodeTo(e *codec.Encoder) {
	writeIndex(e, PalletSystem, systemSet)
	e.WriteU32(c.Value)
}

func (c *SystemUpgrade) EncodeTo(e *codec.Encoder) {
	writeIndex(e, PalletSystem, systemUpgrade)
	e.WriteBytes(c.Code)
}

func (c *CurrencyMint) EncodeTo(e *codec.Encoder) {
	writeIndex(e, PalletCurrency, currencyMint)
	c.Dest.EncodeTo(e)
	e.WriteU128(c.Amount)
}

func (c *CurrencyTransfer) EncodeTo(e *codec.Encoder) {
	writeIndex(e, PalletCurrency, currencyTransfer)
	c.Dest.EncodeTo(e)
	e.WriteU128(c.Amount)
}

func (c *CurrencyTransferAll) EncodeTo(e *codec.Encoder) {
	writeIndex(e, PalletCurrency, currencyTransferAll)
	c.Dest.EncodeTo(e)
}

func (c *StakingBond) EncodeTo(e *codec.Encoder) {
	writeIndex(e, PalletStaking, stakingBond)
	e.WriteU128(c.Amount)
}

// DecodeCall reads a pallet-tagged call.
func DecodeCall(d *codec.Decoder) (Call, error) {
	pallet, err := d.ReadU8()
	if err != nil {
		return nil, err
	}
	variant, err := d.ReadU8()
	if err != nil {
		return nil, err
	}

	switch Pallet(pallet) {
	case PalletSystem:
		switch variant {
		case systemRemark:
			data, err := d.ReadBytes()
			return &SystemRemark{Data: data}, err
		case systemSudoRemark:
			data, err := d.ReadBytes()
			return &SystemSudoRemark{Data: data}, err
		case systemSet:
			value, err := d.ReadU32()
			return &SystemSet{Value: value}, err
		case systemUpgrade:
			code, err := d.ReadBytes()
			return &SystemUpgrade{Code: code}, err
		}
	case PalletCurrency:
		if variant > currencyTransferAll {
			break
		}
		var dest types.AccountID
		if err := dest.DecodeFrom(d); err != nil {
			return nil, err
		}
		switch variant {
		case currencyMint:
			amount, err := d.ReadU128()
			return &CurrencyMint{Dest: dest, Amount: amount}, err
		case currencyTransfer:
			amount, err := d.ReadU128()
			return &CurrencyTransfer{Dest: dest, Amount: amount}, err
		case currencyTransferAll:
			return &CurrencyTransferAll{Dest: dest}, nil
		}
	case PalletStaking:
		if variant == stakingBond {
			amount, err := d.ReadU128()
			return &StakingBond{Amount: amount}, err
		}
	}
	return nil, fmt.Errorf("%w: %s variant %d", ErrUnknownCall, Pallet(pallet), variant)
}
