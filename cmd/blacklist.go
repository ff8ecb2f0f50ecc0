package cmd

import (
	"fmt"
	"sort"

	"github.com/mezonai/runtime/config"
	"github.com/mezonai/runtime/mempool"
	"github.com/mezonai/runtime/types"
	"github.com/spf13/cobra"
)

var (
	blAddr   string
	blReason string
)

var blacklistCmd = &cobra.Command{
	Use:   "blacklist",
	Short: "Manage the signers the pool refuses to admit",
}

var blacklistAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add signer to blacklist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateBlacklist(func(list map[types.AccountID]string, id types.AccountID) {
			list[id] = blReason
		})
	},
}

var blacklistRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove signer from blacklist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateBlacklist(func(list map[types.AccountID]string, id types.AccountID) {
			delete(list, id)
		})
	},
}

var blacklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blacklisted signers",
	RunE: func(cmd *cobra.Command, args []string) error {
		bm, err := blacklistManager()
		if err != nil {
			return err
		}
		list, err := bm.LoadBlacklistFromFile()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("(empty)")
			return nil
		}
		addrs := make([]string, 0, len(list))
		reasons := make(map[string]string, len(list))
		for id, reason := range list {
			addrs = append(addrs, id.String())
			reasons[id.String()] = reason
		}
		sort.Strings(addrs)
		for _, addr := range addrs {
			fmt.Printf("%s\t%s\n", addr, reasons[addr])
		}
		return nil
	},
}

func init() {
	blacklistCmd.AddCommand(blacklistAddCmd)
	blacklistCmd.AddCommand(blacklistRemoveCmd)
	blacklistCmd.AddCommand(blacklistListCmd)
	rootCmd.AddCommand(blacklistCmd)

	blacklistAddCmd.Flags().StringVar(&blAddr, "address", "", "Signer address, base58, 0x-hex or //name")
	blacklistAddCmd.Flags().StringVar(&blReason, "reason", "", "Reason for blacklisting")
	blacklistRemoveCmd.Flags().StringVar(&blAddr, "address", "", "Signer address, base58, 0x-hex or //name")
}

func blacklistManager() (*mempool.BlacklistManager, error) {
	nodeCfg, err := config.LoadNodeConfig(configPath)
	if err != nil {
		return nil, err
	}
	return mempool.NewBlacklistManager(nodeCfg.DataDir), nil
}

func updateBlacklist(update func(list map[types.AccountID]string, id types.AccountID)) error {
	if blAddr == "" {
		return fmt.Errorf("--address is required")
	}
	id, err := config.ResolveAccount(blAddr)
	if err != nil {
		return err
	}
	bm, err := blacklistManager()
	if err != nil {
		return err
	}
	list, err := bm.LoadBlacklistFromFile()
	if err != nil {
		return err
	}
	update(list, id)
	if err := bm.SaveBlacklistToFile(list); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}
