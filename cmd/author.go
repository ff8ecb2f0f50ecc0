package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/mezonai/runtime/block"
	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/events"
	"github.com/mezonai/runtime/logx"
	"github.com/mezonai/runtime/mempool"
	"github.com/mezonai/runtime/ratelimit"
	"github.com/mezonai/runtime/transaction"
	"github.com/spf13/cobra"
)

var (
	authorExtrinsicsPath string
	authorOutPath        string
	authorMaxExtrinsics  int
	authorMetrics        bool
)

var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Author the next block from a file of signed extrinsics",
	Long: `Author the next block on top of the stored head:
- Every extrinsic in the file is validated and pooled
- The pool picks a batch ordered by priority and nonce
- The batch is applied, the block is finalized and stored
- The encoded block is written to --out for other nodes to import`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return authorBlock()
	},
}

func init() {
	rootCmd.AddCommand(authorCmd)

	authorCmd.Flags().StringVar(&authorExtrinsicsPath, "extrinsics", "", "File with one hex encoded extrinsic per line")
	authorCmd.Flags().StringVar(&authorOutPath, "out", "", "Write the hex encoded block to this file")
	authorCmd.Flags().IntVar(&authorMaxExtrinsics, "max-extrinsics", 1000, "Maximum number of extrinsics to put in the block")
	authorCmd.Flags().BoolVar(&authorMetrics, "metrics", false, "Serve prometheus metrics while authoring")
	_ = authorCmd.MarkFlagRequired("extrinsics")
}

func authorBlock() error {
	n, err := openNode(configPath)
	if err != nil {
		return err
	}
	defer n.Close()
	if authorMetrics {
		serveMetrics(n.cfg.MetricsAddr)
	}

	parent, number, ok := n.blocks.Head()
	if !ok {
		return fmt.Errorf("no genesis block, run init first")
	}

	dedup := mempool.NewDedupService(n.blocks)
	dedup.LoadTxHashes(number)
	blacklist, err := mempool.NewBlacklistManager(n.cfg.DataDir).LoadBlacklistFromFile()
	if err != nil {
		return err
	}
	pool := mempool.NewMempool(n.cfg.MempoolSize, n.ledger, dedup)
	pool.SetBlacklist(blacklist)
	if n.cfg.RateLimit > 0 {
		limiter := ratelimit.NewSignerLimiter(&ratelimit.Config{
			MaxPerWindow: n.cfg.RateLimit,
			WindowSize:   time.Second,
		})
		defer limiter.Stop()
		pool.SetRateLimiter(limiter)
	}

	bus := events.NewEventBus()
	n.ledger.SetEventBus(bus)
	pool.SetEventBus(bus)
	stop := logEvents(bus)
	defer stop()

	raws, err := readHexLines(authorExtrinsicsPath)
	if err != nil {
		return err
	}
	for i, raw := range raws {
		ext, err := transaction.DecodeExtrinsic(raw)
		if err != nil {
			logx.Warn("AUTHOR", fmt.Sprintf("Skipping extrinsic %d: %v", i, err))
			continue
		}
		if _, err := pool.Add(ext); err != nil {
			logx.Warn("AUTHOR", fmt.Sprintf("Extrinsic %d not pooled: %v", i, err))
		}
	}

	header, included, err := buildBlock(n, block.RawHeader(parent, number+1, nil), pool.Batch(authorMaxExtrinsics))
	if err != nil {
		return err
	}

	blk := block.AssembleBlock(header, included)
	if err := n.blocks.AddBlock(blk); err != nil {
		return fmt.Errorf("state is at block %d but the head is still %d, restore both stores from a backup: %w",
			header.Number, number, err)
	}
	if err := pool.BlockApplied(header.Number, included); err != nil {
		return err
	}

	raw, err := blk.Bytes()
	if err != nil {
		return err
	}
	if authorOutPath != "" {
		if err := os.WriteFile(authorOutPath, []byte(common.EncodeHex(raw)+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write block file: %w", err)
		}
	}
	return printBlockSummary(blk, pool.Len())
}

// buildBlock authors one block on a draft of the node ledger. The draft is committed only
// once the block is finalized, so a failure leaves the live state and its lifecycle untouched.
func buildBlock(n *node, raw *block.Header, batch []*transaction.Extrinsic) (*block.Header, []*transaction.Extrinsic, error) {
	draft, overlay, err := n.ledger.Draft()
	if err != nil {
		return nil, nil, err
	}
	defer overlay.Discard()

	if err := draft.InitializeBlock(raw); err != nil {
		return nil, nil, err
	}
	var included []*transaction.Extrinsic
	for _, ext := range batch {
		result, err := draft.ApplyExtrinsic(ext)
		if err != nil {
			return nil, nil, err
		}
		logx.Info("AUTHOR", fmt.Sprintf("%s => %s", ext, result))
		if result.IsIncluded() {
			included = append(included, ext)
		}
	}
	header, err := draft.FinalizeBlock()
	if err != nil {
		return nil, nil, err
	}
	if err := overlay.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit block %d: %w", header.Number, err)
	}
	return header, included, nil
}

func printBlockSummary(blk *block.Block, pending int) error {
	hash, err := blk.Header.Hash()
	if err != nil {
		return err
	}
	return printJSON(struct {
		Number         uint32      `json:"number"`
		Hash           common.Hash `json:"hash"`
		ParentHash     common.Hash `json:"parent_hash"`
		StateRoot      common.Hash `json:"state_root"`
		ExtrinsicsRoot common.Hash `json:"extrinsics_root"`
		Extrinsics     int         `json:"extrinsics"`
		Pending        int         `json:"pending,omitempty"`
	}{
		Number:         blk.Header.Number,
		Hash:           hash,
		ParentHash:     blk.Header.ParentHash,
		StateRoot:      blk.Header.StateRoot,
		ExtrinsicsRoot: blk.Header.ExtrinsicsRoot,
		Extrinsics:     len(blk.Extrinsics),
		Pending:        pending,
	})
}
