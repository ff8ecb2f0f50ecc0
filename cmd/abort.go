package cmd

import (
	"github.com/mezonai/runtime/logx"
	"github.com/spf13/cobra"
)

var abortCmd = &cobra.Command{
	Use:   "abort-block",
	Short: "Drop a block left in progress by an interrupted author run",
	Long: `Clear the header stored by initialize_block so author and import can run again.
Extrinsics already applied to the live state are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNode(configPath)
		if err != nil {
			return err
		}
		defer n.Close()

		if err := n.ledger.AbortBlock(); err != nil {
			return err
		}
		logx.Info("CMD", "No block in progress")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(abortCmd)
}
