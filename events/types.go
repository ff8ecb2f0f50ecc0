package events

import (
	"time"

	"github.com/mezonai/runtime/common"
)

// EventType is an enum-like string type for runtime events
type EventType string

const (
	EventExtrinsicPooled  EventType = "ExtrinsicPooled"
	EventExtrinsicApplied EventType = "ExtrinsicApplied"
	EventBlockFinalized   EventType = "BlockFinalized"
	EventBlockImported    EventType = "BlockImported"
)

// RuntimeEvent is anything the ledger or the pool reports to subscribers.
// Hash is the extrinsic hash for extrinsic events and the header hash for block events.
type RuntimeEvent interface {
	Type() EventType
	Timestamp() time.Time
	Hash() common.Hash
}

type baseEvent struct {
	hash      common.Hash
	timestamp time.Time
}

func (e *baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func (e *baseEvent) Hash() common.Hash {
	return e.hash
}

// ExtrinsicPooled is published when the pool admits an extrinsic
type ExtrinsicPooled struct {
	baseEvent
	priority uint64
}

func NewExtrinsicPooled(hash common.Hash, priority uint64) *ExtrinsicPooled {
	return &ExtrinsicPooled{
		baseEvent: baseEvent{hash: hash, timestamp: time.Now()},
		priority:  priority,
	}
}

func (e *ExtrinsicPooled) Type() EventType {
	return EventExtrinsicPooled
}

func (e *ExtrinsicPooled) Priority() uint64 {
	return e.priority
}

// ExtrinsicApplied is published for every extrinsic the authoring path applies, included or not
type ExtrinsicApplied struct {
	baseEvent
	included bool
	result   string
}

func NewExtrinsicApplied(hash common.Hash, included bool, result string) *ExtrinsicApplied {
	return &ExtrinsicApplied{
		baseEvent: baseEvent{hash: hash, timestamp: time.Now()},
		included:  included,
		result:    result,
	}
}

func (e *ExtrinsicApplied) Type() EventType {
	return EventExtrinsicApplied
}

func (e *ExtrinsicApplied) Included() bool {
	return e.included
}

// Result is the printable apply result, e.g. "included(ok)"
func (e *ExtrinsicApplied) Result() string {
	return e.result
}

// BlockEvent covers both finalized (authored) and imported blocks
type BlockEvent struct {
	baseEvent
	kind      EventType
	number    uint32
	stateRoot common.Hash
}

func NewBlockFinalized(number uint32, hash, stateRoot common.Hash) *BlockEvent {
	return newBlockEvent(EventBlockFinalized, number, hash, stateRoot)
}

func NewBlockImported(number uint32, hash, stateRoot common.Hash) *BlockEvent {
	return newBlockEvent(EventBlockImported, number, hash, stateRoot)
}

func newBlockEvent(kind EventType, number uint32, hash, stateRoot common.Hash) *BlockEvent {
	return &BlockEvent{
		baseEvent: baseEvent{hash: hash, timestamp: time.Now()},
		kind:      kind,
		number:    number,
		stateRoot: stateRoot,
	}
}

func (e *BlockEvent) Type() EventType {
	return e.kind
}

func (e *BlockEvent) Number() uint32 {
	return e.number
}

func (e *BlockEvent) StateRoot() common.Hash {
	return e.stateRoot
}
