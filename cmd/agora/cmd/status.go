package cmd

import (
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-agora/internal/governor"
)

var statusCmd = &cobra.Command{
	Use:   "status [governor]",
	Short: "Report whether a governor is initialized",
	Long: `Report whether a governor is initialized and print its fields.

Without an argument the governor derived from the configured wallet is read.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := governorArg(args)
		if err != nil {
			return err
		}
		programID, err := cfg.ProgramID()
		if err != nil {
			return err
		}

		client := newClient()
		defer client.Close()

		ctx, cancel := requestContext(cmd.Context())
		defer cancel()

		acc, err := client.AccountInfo(ctx, address)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Governor: %s\n", address)
		if !governor.IsInitialized(acc, programID) {
			fmt.Fprintln(out, "Status:   not initialized")
			return nil
		}

		// Fixed fields only; the proposal type vector may outgrow this client.
		v, err := governor.NewGovernorView(acc.Data)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Status:   initialized")
		printGovernorView(out, v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// governorArg parses the optional governor argument, falling back to the
// governor derived from the configured wallet.
func governorArg(args []string) (solana.PublicKey, error) {
	if len(args) > 0 {
		address, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid governor address: %w", err)
		}
		return address, nil
	}

	w, err := loadWallet()
	if err != nil {
		return solana.PublicKey{}, err
	}
	programID, err := cfg.ProgramID()
	if err != nil {
		return solana.PublicKey{}, err
	}
	address, _, err := governor.DeriveAddress(programID, w.PublicKey())
	return address, err
}

func printGovernorView(out io.Writer, v *governor.GovernorView) {
	fmt.Fprintf(out, "  Admin:              %s\n", v.Admin())
	fmt.Fprintf(out, "  Manager:            %s\n", v.Manager())
	fmt.Fprintf(out, "  Voting delay:       %d\n", v.VotingDelay())
	fmt.Fprintf(out, "  Voting period:      %d\n", v.VotingPeriod())
	fmt.Fprintf(out, "  Proposal threshold: %d\n", v.ProposalThreshold())
	fmt.Fprintf(out, "  Proposal count:     %d\n", v.ProposalCount())
	fmt.Fprintf(out, "  Total supply:       %d\n", v.TotalSupply())
	fmt.Fprintf(out, "  Bump:               %d\n", v.Bump())
}
