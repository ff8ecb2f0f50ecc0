package cmd

import (
	"fmt"

	"github.com/mezonai/runtime/block"
	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/config"
	"github.com/mezonai/runtime/logx"
	"github.com/mezonai/runtime/merkle"
	"github.com/spf13/cobra"
)

var initGenesisPath string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the genesis balances and the genesis block",
	Long: `Initialize a new chain by:
- Loading the genesis balances from a YAML file
- Writing them to the state store together with the total issuance
- Storing block 0, whose state root commits to the genesis state`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initializeChain()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initGenesisPath, "genesis", "config/genesis.yml", "Path to genesis configuration file")
}

func initializeChain() error {
	n, err := openNode(configPath)
	if err != nil {
		return err
	}
	defer n.Close()

	if _, number, ok := n.blocks.Head(); ok {
		return fmt.Errorf("chain already initialized, head is block %d", number)
	}

	genesis, err := config.LoadGenesisConfig(initGenesisPath)
	if err != nil {
		return err
	}
	balances, err := genesis.Balances()
	if err != nil {
		return err
	}
	if err := n.ledger.CreateAccountsFromGenesis(balances); err != nil {
		return err
	}

	stateRoot, err := n.ledger.StateRoot()
	if err != nil {
		return err
	}
	header := &block.Header{
		Number:         0,
		StateRoot:      stateRoot,
		ExtrinsicsRoot: merkle.OrderedRoot(nil),
	}
	if err := n.blocks.AddBlock(block.AssembleBlock(header, nil)); err != nil {
		return err
	}
	hash, err := header.Hash()
	if err != nil {
		return err
	}

	logx.Info("INIT", "Genesis block ", hash.String(), " state root ", stateRoot.String())
	return printJSON(struct {
		Hash      common.Hash `json:"hash"`
		StateRoot common.Hash `json:"state_root"`
		Accounts  int         `json:"accounts"`
	}{hash, stateRoot, len(balances)})
}
