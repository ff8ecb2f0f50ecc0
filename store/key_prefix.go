package store

// Declare database keys for runtime state. Everything lives in one flat namespace
// and every key written here is covered by the state root.
const (
	PrefixAccount = "BalancesMap"

	KeyTotalIssuance = "TotalIssuance"

	KeyValue      = ":value"
	KeyCode       = ":code"
	KeyHeader     = ":header"
	KeyExtrinsics = ":extrinsics"
)

// Chain keys, kept in a provider separate from runtime state
const (
	PrefixBlock           = "blk:"
	PrefixBlockMeta       = "blk_meta:"
	BlockMetaKeyLatest    = "latest"
	BlockMetaKeyLatestHdr = "latest_hash"
)
