package cmd

import (
	"fmt"

	"github.com/mezonai/runtime/block"
	"github.com/mezonai/runtime/events"
	"github.com/mezonai/runtime/logx"
	"github.com/spf13/cobra"
)

var (
	importBlockPath string
	importMetrics   bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import blocks authored elsewhere",
	Long: `Re-execute every block in the file on top of the stored head.
A block is stored only if its state root and extrinsics root match the recomputed ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return importBlocks()
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importBlockPath, "block", "", "File with one hex encoded block per line")
	importCmd.Flags().BoolVar(&importMetrics, "metrics", false, "Serve prometheus metrics while importing")
	_ = importCmd.MarkFlagRequired("block")
}

func importBlocks() error {
	n, err := openNode(configPath)
	if err != nil {
		return err
	}
	defer n.Close()
	if importMetrics {
		serveMetrics(n.cfg.MetricsAddr)
	}

	bus := events.NewEventBus()
	n.ledger.SetEventBus(bus)
	stop := logEvents(bus)
	defer stop()

	raws, err := readHexLines(importBlockPath)
	if err != nil {
		return err
	}
	for i, raw := range raws {
		blk, err := block.DecodeBlock(raw)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}

		parent, number, ok := n.blocks.Head()
		if !ok {
			return fmt.Errorf("no genesis block, run init first")
		}
		if blk.Header.Number != number+1 || blk.Header.ParentHash != parent {
			return fmt.Errorf("block %d does not extend head %d (%s)", blk.Header.Number, number, parent)
		}

		if err := n.ledger.ExecuteBlock(blk); err != nil {
			return fmt.Errorf("block %d: %w", blk.Header.Number, err)
		}
		if err := n.blocks.AddBlock(blk); err != nil {
			return err
		}
		logx.Info("IMPORT", "Imported block ", blk.Header.Number)
		if err := printBlockSummary(blk, 0); err != nil {
			return err
		}
	}
	return nil
}
