package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/block"
	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/config"
	"github.com/mezonai/runtime/db"
	"github.com/mezonai/runtime/events"
	"github.com/mezonai/runtime/logx"
	"github.com/mezonai/runtime/merkle"
	"github.com/mezonai/runtime/monitoring"
	"github.com/mezonai/runtime/store"
	"github.com/mezonai/runtime/transaction"
	"github.com/mezonai/runtime/types"
)

type RuntimeVersion struct {
	SpecName           string `json:"spec_name"`
	ImplName           string `json:"impl_name"`
	AuthoringVersion   uint32 `json:"authoring_version"`
	SpecVersion        uint32 `json:"spec_version"`
	ImplVersion        uint32 `json:"impl_version"`
	TransactionVersion uint32 `json:"transaction_version"`
	StateVersion       uint32 `json:"state_version"`
}

var Version = RuntimeVersion{
	SpecName:           "frameless-runtime",
	ImplName:           "frameless-runtime",
	AuthoringVersion:   1,
	SpecVersion:        1,
	ImplVersion:        1,
	TransactionVersion: 1,
	StateVersion:       1,
}

// Ledger owns one state store and drives the block lifecycle over it. A block is either
// authored with InitializeBlock, ApplyExtrinsic and FinalizeBlock, or imported with ExecuteBlock.
// Both paths go through the same executor.
type Ledger struct {
	mu    sync.Mutex
	cfg   *config.RuntimeConfig
	state *store.StateStore

	events *events.EventBus
}

func NewLedger(state *store.StateStore, cfg *config.RuntimeConfig) (*Ledger, error) {
	if state == nil {
		return nil, fmt.Errorf("state store cannot be nil")
	}
	if cfg == nil {
		cfg = config.DefaultRuntimeConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid runtime config: %w", err)
	}
	return &Ledger{cfg: cfg, state: state}, nil
}

func (l *Ledger) Config() *config.RuntimeConfig {
	return l.cfg
}

// SetEventBus makes the ledger publish applied extrinsics and finished blocks to bus.
func (l *Ledger) SetEventBus(bus *events.EventBus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = bus
}

func (l *Ledger) publish(event events.RuntimeEvent) {
	if l.events != nil {
		l.events.Publish(event)
	}
}

// initialized reports whether a header is in progress. The phase lives in storage so a
// restarted node sees the same lifecycle state.
func (l *Ledger) initialized() (bool, error) {
	h, err := l.state.Meta.Header()
	if err != nil {
		return false, err
	}
	return h != nil, nil
}

// InitializeBlock stores the raw header and clears the running extrinsic list.
func (l *Ledger) InitializeBlock(header *block.Header) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if header == nil {
		return fmt.Errorf("header cannot be nil")
	}
	logx.Info("RUNTIME", fmt.Sprintf("Entering initialize_block. number=%d parent=%s version=%d",
		header.Number, header.ParentHash, Version.SpecVersion))

	inProgress, err := l.initialized()
	if err != nil {
		return err
	}
	if inProgress {
		return ErrAlreadyInitialized
	}

	if err := l.state.Meta.SetHeader(header.Clone()); err != nil {
		return err
	}
	return l.state.Meta.ClearExtrinsics()
}

// ApplyExtrinsic checks and dispatches one extrinsic into the block being authored.
func (l *Ledger) ApplyExtrinsic(ext *transaction.Extrinsic) (ApplyResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	inProgress, err := l.initialized()
	if err != nil {
		return ApplyResult{}, err
	}
	if !inProgress {
		return ApplyResult{}, ErrNotInitialized
	}
	result, err := newExecutor(l.cfg, l.state).apply(ext)
	if err != nil || l.events == nil {
		return result, err
	}
	if hash, herr := ext.Hash(); herr == nil {
		l.publish(events.NewExtrinsicApplied(hash, result.IsIncluded(), result.String()))
	}
	return result, nil
}

// FinalizeBlock removes the stored header, fills in both roots and returns it.
func (l *Ledger) FinalizeBlock() (*block.Header, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	logx.Info("RUNTIME", "Entering finalize_block.")
	header, err := l.state.Meta.Header()
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, ErrNotInitialized
	}
	if err := l.state.Meta.ClearHeader(); err != nil {
		return nil, err
	}

	extrinsics, err := l.state.Meta.Extrinsics()
	if err != nil {
		return nil, err
	}
	header.ExtrinsicsRoot = merkle.OrderedRoot(extrinsics)
	if header.StateRoot, err = l.state.Root(); err != nil {
		return nil, err
	}

	logx.Info("RUNTIME", fmt.Sprintf("Finishing block finalize. number=%d extrinsics=%d state_root=%s",
		header.Number, len(extrinsics), header.StateRoot))
	l.afterBlock(l.state, header.Number, len(extrinsics))
	if hash, err := header.Hash(); err == nil {
		l.publish(events.NewBlockFinalized(header.Number, hash, header.StateRoot))
	}
	return header, nil
}

// AbortBlock drops the block being authored by clearing the stored header. State written by
// extrinsics already applied stays, the next block clears the running extrinsic list. It is a
// no-op when no block is in progress.
func (l *Ledger) AbortBlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	header, err := l.state.Meta.Header()
	if err != nil {
		return err
	}
	if header == nil {
		return nil
	}
	logx.Warn("RUNTIME", fmt.Sprintf("Aborting block %d", header.Number))
	return l.state.Meta.ClearHeader()
}

// Draft returns a ledger over an overlay of l's state, sharing its config and event bus.
// Nothing the draft writes reaches l until the overlay is committed.
func (l *Ledger) Draft() (*Ledger, *db.Overlay, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	overlay := db.NewOverlay(l.state.Provider())
	state, err := store.NewStateStore(overlay)
	if err != nil {
		return nil, nil, err
	}
	return &Ledger{cfg: l.cfg, state: state, events: l.events}, overlay, nil
}

// ExecuteBlock imports an authored block. Every extrinsic runs on an overlay and the overlay
// is committed only when both recomputed roots match the header, so a rejected block leaves
// storage untouched.
func (l *Ledger) ExecuteBlock(b *block.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b == nil || b.Header == nil {
		return fmt.Errorf("%w: missing header", ErrInvalidBlock)
	}
	start := time.Now()
	logx.Info("RUNTIME", fmt.Sprintf("Entering execute_block. number=%d extrinsics=%d", b.Header.Number, len(b.Extrinsics)))

	inProgress, err := l.initialized()
	if err != nil {
		return err
	}
	if inProgress {
		return ErrAlreadyInitialized
	}

	overlay := db.NewOverlay(l.state.Provider())
	defer overlay.Discard()
	state, err := store.NewStateStore(overlay)
	if err != nil {
		return err
	}

	if err := state.Meta.ClearExtrinsics(); err != nil {
		return l.importFailed(monitoring.ImportStorage, err)
	}
	x := newExecutor(l.cfg, state)
	for i, ext := range b.Extrinsics {
		result, err := x.apply(ext)
		if err != nil {
			return l.importFailed(monitoring.ImportStorage, fmt.Errorf("extrinsic %d: %w", i, err))
		}
		if !result.IsIncluded() {
			return l.importFailed(monitoring.ImportInvalidBlock,
				fmt.Errorf("%w: extrinsic %d: %w", ErrInvalidBlock, i, result.ValidityError))
		}
	}

	if err := state.Meta.ClearHeader(); err != nil {
		return l.importFailed(monitoring.ImportStorage, err)
	}
	stateRoot, err := state.Root()
	if err != nil {
		return l.importFailed(monitoring.ImportStorage, err)
	}
	if stateRoot != b.Header.StateRoot {
		return l.importFailed(monitoring.ImportStateRoot,
			fmt.Errorf("%w: header %s, computed %s", ErrStateRootMismatch, b.Header.StateRoot, stateRoot))
	}

	extrinsics, err := state.Meta.Extrinsics()
	if err != nil {
		return l.importFailed(monitoring.ImportStorage, err)
	}
	extrinsicsRoot := merkle.OrderedRoot(extrinsics)
	if extrinsicsRoot != b.Header.ExtrinsicsRoot {
		return l.importFailed(monitoring.ImportExtrinsicsRoot,
			fmt.Errorf("%w: header %s, computed %s", ErrExtrinsicsRootMismatch, b.Header.ExtrinsicsRoot, extrinsicsRoot))
	}

	if err := overlay.Commit(); err != nil {
		return l.importFailed(monitoring.ImportStorage, fmt.Errorf("failed to commit block %d: %w", b.Header.Number, err))
	}

	logx.Info("RUNTIME", fmt.Sprintf("Finishing block import. number=%d", b.Header.Number))
	monitoring.RecordBlockExecutionTime(time.Since(start))
	l.afterBlock(l.state, b.Header.Number, len(extrinsics))
	if hash, err := b.Header.Hash(); err == nil {
		l.publish(events.NewBlockImported(b.Header.Number, hash, stateRoot))
	}
	return nil
}

func (l *Ledger) importFailed(reason monitoring.ImportFailureReason, err error) error {
	logx.Error("RUNTIME", "Block import failed: ", err)
	monitoring.RecordImportFailure(reason)
	return err
}

func (l *Ledger) afterBlock(state *store.StateStore, number uint32, extrinsics int) {
	monitoring.SetBlockHeight(number)
	monitoring.RecordExtrinsicsInBlock(extrinsics)
	if issuance, err := state.Accounts.TotalIssuance(); err == nil {
		f, _ := new(big.Float).SetInt(issuance.ToBig()).Float64()
		monitoring.SetTotalIssuance(f)
	}
	if logx.Enabled(logx.LevelTrace) {
		entries, err := dumpState(state)
		if err != nil {
			logx.Warn("RUNTIME", "failed to dump state: ", err)
			return
		}
		for _, entry := range entries {
			logx.Trace("RUNTIME", entry.Key, " <=> ", entry.Value)
		}
	}
}

// ValidateTransaction is the read-only pool check. It refuses a stale nonce but accepts a
// nonce ahead of the account, tagging it with Requires on its predecessor.
func (l *Ledger) ValidateTransaction(ext *transaction.Extrinsic) (*ValidTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	logx.Debug("RUNTIME", "Entering validate_transaction. ext: ", ext)
	valid, err := newExecutor(l.cfg, l.state).validate(ext)
	var verr ValidityError
	if errors.As(err, &verr) {
		monitoring.RecordRejectedExtrinsic(verr.rejectedReason())
	}
	return valid, err
}

// CreateAccountsFromGenesis writes the initial balances and adds them to the total issuance.
// Nothing is written unless every entry is accepted.
func (l *Ledger) CreateAccountsFromGenesis(balances []config.GenesisBalance) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	overlay := db.NewOverlay(l.state.Provider())
	defer overlay.Discard()
	state, err := store.NewStateStore(overlay)
	if err != nil {
		return err
	}

	issuance, err := state.Accounts.TotalIssuance()
	if err != nil {
		return err
	}
	for _, b := range balances {
		existed, err := state.Accounts.Exists(b.ID)
		if err != nil {
			return fmt.Errorf("could not check existence of account: %w", err)
		}
		if existed {
			return fmt.Errorf("could not create genesis account %s: %w", b.ID, ErrAccountExisted)
		}
		if b.Balance.Free.Lt(l.cfg.MinimumBalance) {
			return fmt.Errorf("genesis account %s: free balance %s below minimum %s",
				b.ID, b.Balance.Free.Dec(), l.cfg.MinimumBalance.Dec())
		}
		total, ok := types.CheckedAdd(b.Balance.Free, b.Balance.Reserved)
		if ok {
			issuance, ok = types.CheckedAdd(issuance, total)
		}
		if !ok {
			return fmt.Errorf("genesis account %s: total issuance overflows", b.ID)
		}
		acc := &types.AccountBalance{
			Free:     new(uint256.Int).Set(b.Balance.Free),
			Reserved: new(uint256.Int).Set(b.Balance.Reserved),
			Nonce:    b.Balance.Nonce,
		}
		if err := state.Accounts.Put(b.ID, acc); err != nil {
			return err
		}
	}
	if err := state.Accounts.SetTotalIssuance(issuance); err != nil {
		return err
	}
	if err := overlay.Commit(); err != nil {
		return fmt.Errorf("failed to commit genesis: %w", err)
	}
	logx.Info("RUNTIME", fmt.Sprintf("Created %d genesis accounts, total issuance %s", len(balances), issuance.Dec()))
	return nil
}

// Account returns the record of id, the zero record when absent.
func (l *Ledger) Account(id types.AccountID) (*types.AccountBalance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Accounts.Get(id)
}

func (l *Ledger) AccountExists(id types.AccountID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Accounts.Exists(id)
}

func (l *Ledger) TotalIssuance() (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Accounts.TotalIssuance()
}

// Value returns the System::Set cell, false when it was never set.
func (l *Ledger) Value() (uint32, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Meta.Value()
}

func (l *Ledger) Code() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Meta.Code()
}

func (l *Ledger) StateRoot() (common.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Root()
}

// StateEntry is one storage pair in hex.
type StateEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DumpState returns every storage pair sorted by key.
func (l *Ledger) DumpState() ([]StateEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return dumpState(l.state)
}

func dumpState(state *store.StateStore) ([]StateEntry, error) {
	pairs, err := state.Pairs()
	if err != nil {
		return nil, err
	}
	entries := make([]StateEntry, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, StateEntry{Key: common.EncodeHex(p.Key), Value: common.EncodeHex(p.Value)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}
