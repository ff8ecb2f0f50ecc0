package ledger

import (
	"encoding/binary"
	"math"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/config"
	"github.com/mezonai/runtime/store"
	"github.com/mezonai/runtime/transaction"
	"github.com/mezonai/runtime/types"
)

// executor runs the checks and dispatch arms against one state. The authoring path and the
// import path build one each, over the live provider and over an overlay respectively.
type executor struct {
	cfg   *config.RuntimeConfig
	state *store.StateStore
}

func newExecutor(cfg *config.RuntimeConfig, state *store.StateStore) *executor {
	return &executor{cfg: cfg, state: state}
}

// check runs signature, tip and nonce checks in that order. With exactNonce set a nonce
// above the account nonce is Future, otherwise only a lower one is refused.
func (x *executor) check(ext *transaction.Extrinsic, exactNonce bool) (types.AccountID, *types.AccountBalance, ValidityError, error) {
	signer, signed := ext.Signer()
	if !signed || !ext.Verify() {
		return signer, nil, BadProof, nil
	}

	acc, err := x.state.Accounts.Get(signer)
	if err != nil {
		return signer, nil, ValidityOK, err
	}

	if !x.canAffordTip(acc, ext.Function.Tip) {
		return signer, acc, Payment, nil
	}

	nonce := ext.Function.Nonce
	if nonce < acc.Nonce {
		return signer, acc, Stale, nil
	}
	if exactNonce && nonce > acc.Nonce {
		return signer, acc, Future, nil
	}
	// the nonce after the last one could not be stored
	if nonce == math.MaxUint32 {
		return signer, acc, Stale, nil
	}
	return signer, acc, ValidityOK, nil
}

// canAffordTip requires the signer to keep the minimum balance after paying. A zero tip is free.
func (x *executor) canAffordTip(acc *types.AccountBalance, tip *uint256.Int) bool {
	if tip == nil || tip.IsZero() {
		return true
	}
	spendable, ok := types.CheckedSub(acc.Free, x.cfg.MinimumBalance)
	return ok && !spendable.Lt(tip)
}

func (x *executor) validate(ext *transaction.Extrinsic) (*ValidTransaction, error) {
	signer, acc, verr, err := x.check(ext, false)
	if err != nil {
		return nil, err
	}
	if verr != ValidityOK {
		return nil, verr
	}

	nonce := ext.Function.Nonce
	valid := &ValidTransaction{
		Priority:  types.SaturatingUint64(ext.Function.Tip),
		Provides:  [][]byte{NonceTag(signer, nonce)},
		Longevity: MaxLongevity,
		Propagate: true,
	}
	if nonce > acc.Nonce {
		valid.Requires = [][]byte{NonceTag(signer, nonce-1)}
	}
	return valid, nil
}

// NonceTag is the pool tag of (signer, nonce): the account id followed by the nonce, little endian.
func NonceTag(signer types.AccountID, nonce uint32) []byte {
	tag := make([]byte, types.AccountIDSize+4)
	copy(tag, signer[:])
	binary.LittleEndian.PutUint32(tag[types.AccountIDSize:], nonce)
	return tag
}
