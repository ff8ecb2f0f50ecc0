package ledger

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/logx"
	"github.com/mezonai/runtime/monitoring"
	"github.com/mezonai/runtime/transaction"
	"github.com/mezonai/runtime/types"
)

// apply checks ext and, if it may be included, settles the tip, runs the call, bumps the
// signer nonce and records the extrinsic. The error return is reserved for storage faults.
func (x *executor) apply(ext *transaction.Extrinsic) (ApplyResult, error) {
	signer, _, verr, err := x.check(ext, true)
	if err != nil {
		return ApplyResult{}, err
	}
	if verr != ValidityOK {
		logx.Debug("RUNTIME", fmt.Sprintf("Rejected %s: %v", ext, verr))
		monitoring.RecordRejectedExtrinsic(verr.rejectedReason())
		return rejected(verr), nil
	}

	if err := x.settleTip(signer, ext.Function.Tip); err != nil {
		return ApplyResult{}, err
	}

	// re-read after the tip, the signer may be the treasury
	acc, err := x.state.Accounts.Get(signer)
	if err != nil {
		return ApplyResult{}, err
	}

	dispatchErr, drains, err := x.dispatch(signer, acc, ext.Function.Call)
	if err != nil {
		return ApplyResult{}, err
	}

	acc.Nonce++
	if dispatchErr == nil && drains {
		err = x.state.Accounts.PutOrReap(signer, acc)
	} else {
		err = x.state.Accounts.Put(signer, acc)
	}
	if err != nil {
		return ApplyResult{}, err
	}

	raw, err := ext.Bytes()
	if err != nil {
		return ApplyResult{}, fmt.Errorf("failed to encode extrinsic: %w", err)
	}
	if err := x.state.Meta.AppendExtrinsic(raw); err != nil {
		return ApplyResult{}, err
	}

	result := included(dispatchErr)
	logx.Debug("RUNTIME", fmt.Sprintf("Applied %s: %s", ext, result))
	monitoring.RecordAppliedExtrinsic(dispatchErr == nil)
	return result, nil
}

// settleTip moves tip from signer to the treasury, or burns it when the treasury would
// stay below the minimum balance. Affordability was checked already.
func (x *executor) settleTip(signer types.AccountID, tip *uint256.Int) error {
	if tip == nil || tip.IsZero() {
		return nil
	}

	acc, err := x.state.Accounts.Get(signer)
	if err != nil {
		return err
	}
	acc.Free = new(uint256.Int).Sub(acc.Free, tip)
	if err := x.state.Accounts.Put(signer, acc); err != nil {
		return err
	}

	treasury, err := x.state.Accounts.Get(x.cfg.Treasury)
	if err != nil {
		return err
	}
	if credited, ok := types.CheckedAdd(treasury.Free, tip); ok && !credited.Lt(x.cfg.MinimumBalance) {
		treasury.Free = credited
		return x.state.Accounts.Put(x.cfg.Treasury, treasury)
	}

	issuance, err := x.state.Accounts.TotalIssuance()
	if err != nil {
		return err
	}
	remaining, ok := types.CheckedSub(issuance, tip)
	if !ok {
		return fmt.Errorf("total issuance %s below burned tip %s", issuance.Dec(), tip.Dec())
	}
	logx.Debug("RUNTIME", fmt.Sprintf("Burning tip %s from %s", tip.Dec(), signer))
	return x.state.Accounts.SetTotalIssuance(remaining)
}

// dispatch runs one call against the signer record acc, which the caller persists afterwards.
// drains reports that the arm may have emptied the signer, so it is reaped when both balances are zero.
func (x *executor) dispatch(signer types.AccountID, acc *types.AccountBalance, call transaction.Call) (*DispatchError, bool, error) {
	switch c := call.(type) {
	case *transaction.SystemRemark:
		return nil, false, nil

	case *transaction.SystemSudoRemark:
		if signer != x.cfg.Sudo {
			return badOrigin("sudo remark from non-sudo account"), false, nil
		}
		return nil, false, nil

	case *transaction.SystemSet:
		return nil, false, x.state.Meta.SetValue(c.Value)

	case *transaction.SystemUpgrade:
		if signer != x.cfg.Sudo {
			return badOrigin("upgrade from non-sudo account"), false, nil
		}
		return nil, false, x.state.Meta.SetCode(c.Code)

	case *transaction.CurrencyMint:
		dispatchErr, err := x.mint(signer, acc, c)
		return dispatchErr, false, err

	case *transaction.CurrencyTransfer:
		dispatchErr, err := x.transfer(signer, acc, c)
		return dispatchErr, true, err

	case *transaction.CurrencyTransferAll:
		dispatchErr, err := x.transferAll(signer, acc, c)
		return dispatchErr, true, err

	case *transaction.StakingBond:
		return x.bond(acc, c), false, nil
	}
	return other(fmt.Sprintf("unsupported call %T", call)), false, nil
}

// load returns the record of id, aliasing the signer record when id is the signer.
func (x *executor) load(id, signer types.AccountID, acc *types.AccountBalance) (*types.AccountBalance, error) {
	if id == signer {
		return acc, nil
	}
	return x.state.Accounts.Get(id)
}

func (x *executor) mint(signer types.AccountID, acc *types.AccountBalance, c *transaction.CurrencyMint) (*DispatchError, error) {
	if signer != x.cfg.Sudo {
		return badOrigin("mint from non-sudo account"), nil
	}
	amount := orZero(c.Amount)

	dest, err := x.load(c.Dest, signer, acc)
	if err != nil {
		return nil, err
	}
	free, ok := types.CheckedAdd(dest.Free, amount)
	if !ok {
		return overflow("destination free balance"), nil
	}
	issuance, err := x.state.Accounts.TotalIssuance()
	if err != nil {
		return nil, err
	}
	newIssuance, ok := types.CheckedAdd(issuance, amount)
	if !ok {
		return overflow("total issuance"), nil
	}
	if free.Lt(x.cfg.MinimumBalance) {
		return other("minted balance below minimum"), nil
	}

	dest.Free = free
	if c.Dest != signer {
		if err := x.state.Accounts.Put(c.Dest, dest); err != nil {
			return nil, err
		}
	}
	return nil, x.state.Accounts.SetTotalIssuance(newIssuance)
}

func (x *executor) transfer(signer types.AccountID, acc *types.AccountBalance, c *transaction.CurrencyTransfer) (*DispatchError, error) {
	amount := orZero(c.Amount)
	remainder, ok := types.CheckedSub(acc.Free, amount)
	if !ok {
		return other("insufficient balance"), nil
	}
	if !remainder.IsZero() && remainder.Lt(x.cfg.MinimumBalance) {
		return other("sender would fall below minimum balance"), nil
	}

	dest, err := x.load(c.Dest, signer, acc)
	if err != nil {
		return nil, err
	}
	credited, ok := types.CheckedAdd(dest.Free, amount)
	if !ok {
		return overflow("destination free balance"), nil
	}
	if credited.Lt(x.cfg.MinimumBalance) {
		return other("destination would fall below minimum balance"), nil
	}

	if c.Dest == signer {
		return nil, nil
	}
	acc.Free = remainder
	dest.Free = credited
	return nil, x.state.Accounts.Put(c.Dest, dest)
}

func (x *executor) transferAll(signer types.AccountID, acc *types.AccountBalance, c *transaction.CurrencyTransferAll) (*DispatchError, error) {
	if !acc.Reserved.IsZero() {
		return badOrigin("reserved balance must be unreserved first"), nil
	}

	dest, err := x.load(c.Dest, signer, acc)
	if err != nil {
		return nil, err
	}
	credited, ok := types.CheckedAdd(dest.Free, acc.Free)
	if !ok {
		return overflow("destination free balance"), nil
	}
	if c.Dest == signer {
		return nil, nil
	}
	if credited.Lt(x.cfg.MinimumBalance) {
		return other("destination would fall below minimum balance"), nil
	}

	dest.Free = credited
	acc.Free = new(uint256.Int)
	return nil, x.state.Accounts.Put(c.Dest, dest)
}

func (x *executor) bond(acc *types.AccountBalance, c *transaction.StakingBond) *DispatchError {
	amount := orZero(c.Amount)
	spendable, ok := types.CheckedSub(acc.Free, x.cfg.MinimumBalance)
	if !ok || spendable.Lt(amount) {
		return badOrigin("insufficient free balance to bond")
	}
	reserved, ok := types.CheckedAdd(acc.Reserved, amount)
	if !ok {
		return overflow("reserved balance")
	}
	acc.Free = new(uint256.Int).Sub(acc.Free, amount)
	acc.Reserved = reserved
	return nil
}

// orZero reads a nil amount as zero, which is how it is encoded and signed
func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
