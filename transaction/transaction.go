package transaction

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/codec"
	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/logx"
	"github.com/mezonai/runtime/types"
)

const (
	SignatureSize = ed25519.SignatureSize

	// EraImmortal is the only era marker produced by this runtime
	EraImmortal uint8 = 0x00
)

var ErrInvalidEra = errors.New("unsupported era marker")

// CallExt is the signed payload of an extrinsic: the call plus the sender's nonce and an optional tip.
type CallExt struct {
	Call  Call
	Nonce uint32
	Tip   *uint256.Int // nil means no tip
}

func (c *CallExt) EncodeTo(e *codec.Encoder) {
	c.Call.EncodeTo(e)
	e.WriteU32(c.Nonce)
	e.WriteOptionU128(c.Tip)
}

func (c *CallExt) DecodeFrom(d *codec.Decoder) error {
	call, err := DecodeCall(d)
	if err != nil {
		return err
	}
	c.Call = call
	if c.Nonce, err = d.ReadU32(); err != nil {
		return err
	}
	c.Tip, err = d.ReadOptionU128()
	return err
}

// Serialize returns the bytes covered by the signature
func (c *CallExt) Serialize() ([]byte, error) {
	return codec.Encode(c)
}

type Signature struct {
	Signer types.AccountID
	Sig    [SignatureSize]byte
	Era    uint8
}

func (s *Signature) EncodeTo(e *codec.Encoder) {
	s.Signer.EncodeTo(e)
	e.WriteFixed(s.Sig[:])
	e.WriteU8(s.Era)
}

func (s *Signature) DecodeFrom(d *codec.Decoder) error {
	if err := s.Signer.DecodeFrom(d); err != nil {
		return err
	}
	sig, err := d.ReadFixed(SignatureSize)
	if err != nil {
		return err
	}
	copy(s.Sig[:], sig)
	if s.Era, err = d.ReadU8(); err != nil {
		return err
	}
	if s.Era != EraImmortal {
		return fmt.Errorf("%w: 0x%02x", ErrInvalidEra, s.Era)
	}
	return nil
}

// Extrinsic is a call with an optional signature. Unsigned extrinsics decode fine but are never dispatched.
type Extrinsic struct {
	Signature *Signature
	Function  CallExt
}

// NewSigned builds an extrinsic signed by priv over the encoded CallExt.
func NewSigned(call Call, nonce uint32, tip *uint256.Int, priv ed25519.PrivateKey) (*Extrinsic, error) {
	ext := &Extrinsic{Function: CallExt{Call: call, Nonce: nonce, Tip: tip}}
	payload, err := ext.Function.Serialize()
	if err != nil {
		return nil, err
	}
	sig := &Signature{Era: EraImmortal}
	copy(sig.Signer[:], priv.Public().(ed25519.PublicKey))
	copy(sig.Sig[:], ed25519.Sign(priv, payload))
	ext.Signature = sig
	return ext, nil
}

func NewUnsigned(call Call, nonce uint32, tip *uint256.Int) *Extrinsic {
	return &Extrinsic{Function: CallExt{Call: call, Nonce: nonce, Tip: tip}}
}

func (x *Extrinsic) EncodeTo(e *codec.Encoder) {
	e.WriteOption(x.Signature != nil)
	if x.Signature != nil {
		x.Signature.EncodeTo(e)
	}
	x.Function.EncodeTo(e)
}

func (x *Extrinsic) DecodeFrom(d *codec.Decoder) error {
	signed, err := d.ReadOption()
	if err != nil {
		return err
	}
	x.Signature = nil
	if signed {
		sig := &Signature{}
		if err := sig.DecodeFrom(d); err != nil {
			return err
		}
		x.Signature = sig
	}
	return x.Function.DecodeFrom(d)
}

// DecodeExtrinsic strictly decodes one encoded extrinsic
func DecodeExtrinsic(raw []byte) (*Extrinsic, error) {
	x := &Extrinsic{}
	if err := codec.Decode(raw, x); err != nil {
		return nil, fmt.Errorf("decode extrinsic: %w", err)
	}
	return x, nil
}

func (x *Extrinsic) Bytes() ([]byte, error) {
	return codec.Encode(x)
}

// Hash is the blake2b-256 of the full encoding
func (x *Extrinsic) Hash() (common.Hash, error) {
	raw, err := x.Bytes()
	if err != nil {
		return common.Hash{}, err
	}
	return common.Blake2b256(raw), nil
}

// Signer returns the signing account, false for unsigned extrinsics
func (x *Extrinsic) Signer() (types.AccountID, bool) {
	if x.Signature == nil {
		return types.AccountID{}, false
	}
	return x.Signature.Signer, true
}

func (x *Extrinsic) String() string {
	signer := "unsigned"
	if x.Signature != nil {
		signer = x.Signature.Signer.String()
	}
	tip := "none"
	if x.Function.Tip != nil {
		tip = x.Function.Tip.Dec()
	}
	return fmt.Sprintf("%s{signer=%s nonce=%d tip=%s}", x.Function.Call.Name(), signer, x.Function.Nonce, tip)
}

// VerifySignature checks an ed25519 signature made by signer over payload.
func VerifySignature(payload []byte, signer types.AccountID, sig [SignatureSize]byte) bool {
	return ed25519.Verify(ed25519.PublicKey(signer[:]), payload, sig[:])
}

// Verify reports whether the extrinsic carries a valid signature over its CallExt.
func (x *Extrinsic) Verify() bool {
	if x.Signature == nil {
		logx.Debug("TransactionVerify", "missing signature")
		return false
	}
	payload, err := x.Function.Serialize()
	if err != nil {
		logx.Error("TransactionVerify", "failed to encode payload: ", err)
		return false
	}
	if !VerifySignature(payload, x.Signature.Signer, x.Signature.Sig) {
		logx.Debug("TransactionVerify", "ED25519 verification failed for ", x.Signature.Signer.String())
		return false
	}
	return true
}
