package cmd

import (
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/config"
	"github.com/mezonai/runtime/transaction"
	"github.com/mezonai/runtime/types"
	"github.com/spf13/cobra"
)

var (
	extSigner      string
	extPrivKeyPath string
	extCall        string
	extDest        string
	extAmount      string
	extData        string
	extValue       uint32
	extNonce       uint32
	extTip         string
	extOut         string
)

var extrinsicCmd = &cobra.Command{
	Use:   "extrinsic",
	Short: "Build and sign an extrinsic",
	Long: `Build a signed extrinsic and print it hex encoded, or append it to --out.
Calls: remark, sudo-remark, set, upgrade, mint, transfer, transfer-all, bond.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildExtrinsic()
	},
}

func init() {
	rootCmd.AddCommand(extrinsicCmd)

	extrinsicCmd.Flags().StringVar(&extSigner, "signer", "", "Dev account name to sign with, e.g. alice")
	extrinsicCmd.Flags().StringVar(&extPrivKeyPath, "privkey-path", "", "Path to a hex encoded Ed25519 private key")
	extrinsicCmd.Flags().StringVar(&extCall, "call", "", "Call to dispatch")
	extrinsicCmd.Flags().StringVar(&extDest, "dest", "", "Destination account for mint, transfer and transfer-all")
	extrinsicCmd.Flags().StringVar(&extAmount, "amount", "", "Decimal amount for mint, transfer and bond")
	extrinsicCmd.Flags().StringVar(&extData, "data", "", "Hex payload for remark, sudo-remark and upgrade")
	extrinsicCmd.Flags().Uint32Var(&extValue, "value", 0, "Value for set")
	extrinsicCmd.Flags().Uint32Var(&extNonce, "nonce", 0, "Signer nonce")
	extrinsicCmd.Flags().StringVar(&extTip, "tip", "", "Optional decimal tip")
	extrinsicCmd.Flags().StringVar(&extOut, "out", "", "Append the extrinsic to this file instead of printing it")
	_ = extrinsicCmd.MarkFlagRequired("call")
}

func buildExtrinsic() error {
	priv, err := loadSigningKey()
	if err != nil {
		return err
	}
	call, err := parseCall(extCall)
	if err != nil {
		return err
	}
	var tip *uint256.Int
	if extTip != "" {
		if tip, err = types.ParseBalance(extTip); err != nil {
			return fmt.Errorf("invalid tip: %w", err)
		}
	}

	ext, err := transaction.NewSigned(call, extNonce, tip, priv)
	if err != nil {
		return err
	}
	raw, err := ext.Bytes()
	if err != nil {
		return err
	}
	line := common.EncodeHex(raw)
	if extOut == "" {
		fmt.Println(line)
		return nil
	}

	f, err := os.OpenFile(extOut, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, line)
	return err
}

func loadSigningKey() (ed25519.PrivateKey, error) {
	switch {
	case extSigner != "" && extPrivKeyPath != "":
		return nil, fmt.Errorf("--signer and --privkey-path are mutually exclusive")
	case extSigner != "":
		return config.DevKey(extSigner), nil
	case extPrivKeyPath != "":
		return config.LoadEd25519PrivKey(extPrivKeyPath)
	default:
		return nil, fmt.Errorf("one of --signer or --privkey-path is required")
	}
}

func parseCall(name string) (transaction.Call, error) {
	switch name {
	case "remark", "sudo-remark", "upgrade":
		data, err := common.DecodeHex(extData)
		if err != nil {
			return nil, err
		}
		switch name {
		case "remark":
			return &transaction.SystemRemark{Data: data}, nil
		case "sudo-remark":
			return &transaction.SystemSudoRemark{Data: data}, nil
		default:
			return &transaction.SystemUpgrade{Code: data}, nil
		}
	case "set":
		return &transaction.SystemSet{Value: extValue}, nil
	case "bond":
		amount, err := types.ParseBalance(extAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %w", err)
		}
		return &transaction.StakingBond{Amount: amount}, nil
	case "transfer-all":
		dest, err := config.ResolveAccount(extDest)
		if err != nil {
			return nil, fmt.Errorf("invalid dest: %w", err)
		}
		return &transaction.CurrencyTransferAll{Dest: dest}, nil
	case "mint", "transfer":
		dest, err := config.ResolveAccount(extDest)
		if err != nil {
			return nil, fmt.Errorf("invalid dest: %w", err)
		}
		amount, err := types.ParseBalance(extAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %w", err)
		}
		if name == "mint" {
			return &transaction.CurrencyMint{Dest: dest, Amount: amount}, nil
		}
		return &transaction.CurrencyTransfer{Dest: dest, Amount: amount}, nil
	default:
		return nil, fmt.Errorf("unknown call %q", name)
	}
}
