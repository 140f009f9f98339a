package cmd

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	agorasolana "github.com/lugondev/go-agora/internal/solana"
)

var (
	walletOut        string
	walletForce      bool
	walletShowSecret bool
	airdropSOL       float64
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet management commands",
	Long:  `Commands for managing the Solana wallet that signs and pays for governor initialization.`,
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new wallet",
	Long: `Generate a new Solana wallet keypair.

Example:
  agora wallet new --out ~/.config/solana/agora.json
  agora wallet new --show-secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := agorasolana.NewWallet()
		out := cmd.OutOrStdout()

		if walletOut != "" {
			if !walletForce {
				if _, err := os.Stat(walletOut); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", walletOut)
				}
			}
			if err := w.SaveToFile(walletOut); err != nil {
				return err
			}
			fmt.Fprintf(out, "Keypair written to %s\n", walletOut)
		}

		fmt.Fprintf(out, "Public Key:  %s\n", w.PublicKey())
		if walletShowSecret {
			fmt.Fprintf(out, "Private Key: %s\n", w.Base58())
			fmt.Fprintln(out, "\nWARNING: Save your private key securely. Never share it with anyone!")
		}
		return nil
	},
}

var walletAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the configured wallet address",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), w.PublicKey())
		return nil
	},
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Check wallet balance",
	Long:  `Check the SOL balance of an address, or of the configured wallet.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pubKey, err := addressArg(args)
		if err != nil {
			return err
		}

		client := newClient()
		defer client.Close()

		ctx, cancel := requestContext(cmd.Context())
		defer cancel()

		balance, err := client.GetBalanceSOL(ctx, pubKey)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Address: %s\nBalance: %.9f SOL\n", pubKey, balance)
		return nil
	},
}

var walletAirdropCmd = &cobra.Command{
	Use:   "airdrop [address]",
	Short: "Request an airdrop on devnet, testnet or localnet",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pubKey, err := addressArg(args)
		if err != nil {
			return err
		}
		if airdropSOL <= 0 {
			return fmt.Errorf("--sol must be positive")
		}

		client := newClient()
		defer client.Close()

		ctx, cancel := requestContext(cmd.Context())
		defer cancel()

		lamports := uint64(airdropSOL * float64(solana.LAMPORTS_PER_SOL))
		sig, err := client.RequestAirdrop(ctx, pubKey, lamports)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Requested %d lamports for %s\nSignature: %s\n", lamports, pubKey, sig)
		return nil
	},
}

// addressArg parses the optional address argument, falling back to the
// configured wallet.
func addressArg(args []string) (solana.PublicKey, error) {
	if len(args) > 0 {
		pubKey, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid address: %w", err)
		}
		return pubKey, nil
	}
	w, err := loadWallet()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return w.PublicKey(), nil
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletNewCmd, walletAddressCmd, walletBalanceCmd, walletAirdropCmd)

	walletNewCmd.Flags().StringVarP(&walletOut, "out", "o", "", "write the keypair to this file")
	walletNewCmd.Flags().BoolVar(&walletForce, "force", false, "overwrite an existing keypair file")
	walletNewCmd.Flags().BoolVar(&walletShowSecret, "show-secret", false, "print the base58 private key")

	walletAirdropCmd.Flags().Float64Var(&airdropSOL, "sol", 1, "amount to request in SOL")
}
