package cmd

import (
	"os"

	"github.com/mezonai/runtime/logx"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "runtime",
	Short: "Ledger runtime CLI",
	Long:  "Command line interface for authoring, importing and inspecting blocks of the ledger runtime.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			logx.SetLevel(logx.ParseLevel(logLevel))
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/node.ini", "Path to the node and runtime .ini file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error), overrides LOG_LEVEL")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
