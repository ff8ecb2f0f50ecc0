package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/mezonai/runtime/monitoring"
)

var (
	ErrAccountExisted         = errors.New("account existed")
	ErrNotInitialized         = errors.New("block not initialized")
	ErrAlreadyInitialized     = errors.New("block already initialized")
	ErrStateRootMismatch      = errors.New("state root mismatch")
	ErrExtrinsicsRootMismatch = errors.New("extrinsics root mismatch")
	ErrInvalidBlock           = errors.New("block contains an invalid extrinsic")
)

// ValidityError excludes an extrinsic from the block entirely. Nothing it would have done happens.
type ValidityError uint8

const (
	ValidityOK ValidityError = iota
	BadProof
	Payment
	Stale
	Future
)

func (v ValidityError) Error() string {
	switch v {
	case BadProof:
		return "invalid transaction: bad proof"
	case Payment:
		return "invalid transaction: payment"
	case Stale:
		return "invalid transaction: stale nonce"
	case Future:
		return "invalid transaction: future nonce"
	default:
		return fmt.Sprintf("invalid transaction: code %d", uint8(v))
	}
}

func (v ValidityError) rejectedReason() monitoring.ExtrinsicRejectedReason {
	switch v {
	case BadProof:
		return monitoring.ExtrinsicBadProof
	case Payment:
		return monitoring.ExtrinsicPayment
	case Stale:
		return monitoring.ExtrinsicStale
	case Future:
		return monitoring.ExtrinsicFuture
	default:
		return monitoring.ExtrinsicUnknown
	}
}

type DispatchErrorKind uint8

const (
	BadOrigin DispatchErrorKind = iota + 1
	ArithmeticOverflow
	Other
)

func (k DispatchErrorKind) String() string {
	switch k {
	case BadOrigin:
		return "BadOrigin"
	case ArithmeticOverflow:
		return "ArithmeticOverflow"
	case Other:
		return "Other"
	default:
		return fmt.Sprintf("DispatchErrorKind(%d)", uint8(k))
	}
}

// DispatchError is the failed effect of an included extrinsic.
type DispatchError struct {
	Kind    DispatchErrorKind
	Message string
}

func (e *DispatchError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

func badOrigin(msg string) *DispatchError { return &DispatchError{Kind: BadOrigin, Message: msg} }
func overflow(msg string) *DispatchError  { return &DispatchError{Kind: ArithmeticOverflow, Message: msg} }
func other(msg string) *DispatchError     { return &DispatchError{Kind: Other, Message: msg} }

type Outcome uint8

const (
	// Included extrinsics are recorded in the block and bump the signer nonce, even when dispatch failed.
	Included Outcome = iota
	// Rejected extrinsics never touch state.
	Rejected
)

func (o Outcome) String() string {
	if o == Included {
		return "included"
	}
	return "rejected"
}

// ApplyResult is the outcome of ApplyExtrinsic. DispatchError is only set for Included,
// ValidityError only for Rejected.
type ApplyResult struct {
	Outcome       Outcome
	DispatchError *DispatchError
	ValidityError ValidityError
}

func included(dispatchErr *DispatchError) ApplyResult {
	return ApplyResult{Outcome: Included, DispatchError: dispatchErr}
}

func rejected(v ValidityError) ApplyResult {
	return ApplyResult{Outcome: Rejected, ValidityError: v}
}

func (r ApplyResult) IsIncluded() bool { return r.Outcome == Included }

// Succeeded reports an included extrinsic whose dispatch had its intended effect.
func (r ApplyResult) Succeeded() bool { return r.Outcome == Included && r.DispatchError == nil }

func (r ApplyResult) String() string {
	switch {
	case r.Outcome == Rejected:
		return "rejected(" + r.ValidityError.Error() + ")"
	case r.DispatchError != nil:
		return "included(" + r.DispatchError.Error() + ")"
	default:
		return "included(ok)"
	}
}

// ValidTransaction describes an extrinsic that may be pooled.
type ValidTransaction struct {
	Priority  uint64
	Requires  [][]byte
	Provides  [][]byte
	Longevity uint64
	Propagate bool
}

const MaxLongevity uint64 = math.MaxUint64
