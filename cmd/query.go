package cmd

import (
	"fmt"
	"os"

	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/config"
	"github.com/mezonai/runtime/jsonx"
	"github.com/mezonai/runtime/ledger"
	"github.com/spf13/cobra"
)

var stateDump bool

var accountCmd = &cobra.Command{
	Use:   "account <address>",
	Short: "Show the balance record of an account",
	Long:  "Show the balance record of an account. The address is base58, 0x-hex or a //name dev account.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := config.ResolveAccount(args[0])
		if err != nil {
			return err
		}
		n, err := openNode(configPath)
		if err != nil {
			return err
		}
		defer n.Close()

		exists, err := n.ledger.AccountExists(id)
		if err != nil {
			return err
		}
		acc, err := n.ledger.Account(id)
		if err != nil {
			return err
		}
		return printJSON(struct {
			Address  string `json:"address"`
			Exists   bool   `json:"exists"`
			Free     string `json:"free"`
			Reserved string `json:"reserved"`
			Nonce    uint32 `json:"nonce"`
		}{id.String(), exists, acc.Free.Dec(), acc.Reserved.Dec(), acc.Nonce})
	},
}

var stateCmd = &cobra.Command{
	Use:     "state-root",
	Aliases: []string{"state"},
	Short:   "Show the state root, the total issuance and the global cells",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNode(configPath)
		if err != nil {
			return err
		}
		defer n.Close()

		root, err := n.ledger.StateRoot()
		if err != nil {
			return err
		}
		issuance, err := n.ledger.TotalIssuance()
		if err != nil {
			return err
		}
		value, hasValue, err := n.ledger.Value()
		if err != nil {
			return err
		}
		code, err := n.ledger.Code()
		if err != nil {
			return err
		}

		out := struct {
			Head          uint32                `json:"head"`
			HeadHash      common.Hash           `json:"head_hash"`
			StateRoot     common.Hash           `json:"state_root"`
			TotalIssuance string                `json:"total_issuance"`
			Value         *uint32               `json:"value,omitempty"`
			CodeHash      *common.Hash          `json:"code_hash,omitempty"`
			Version       ledger.RuntimeVersion `json:"version"`
			Storage       []ledger.StateEntry   `json:"storage,omitempty"`
		}{
			StateRoot:     root,
			TotalIssuance: issuance.Dec(),
			Version:       ledger.Version,
		}
		out.HeadHash, out.Head, _ = n.blocks.Head()
		if hasValue {
			out.Value = &value
		}
		if code != nil {
			hash := common.Blake2b256(code)
			out.CodeHash = &hash
		}
		if stateDump {
			if out.Storage, err = n.ledger.DumpState(); err != nil {
				return err
			}
		}
		return printJSON(out)
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(stateCmd)

	stateCmd.Flags().BoolVar(&stateDump, "dump", false, "Include every storage key and value")
}

func printJSON(v interface{}) error {
	data, err := jsonx.MarshalIndent(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
