package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lugondev/go-agora/internal/config"
	agoraerrors "github.com/lugondev/go-agora/internal/errors"
	"github.com/lugondev/go-agora/internal/governor"
	"github.com/lugondev/go-agora/internal/initializer"
	"github.com/lugondev/go-agora/internal/ledger"
	"github.com/lugondev/go-agora/internal/metrics"
	"github.com/lugondev/go-agora/internal/program"
)

var (
	initManager           string
	initVotingDelay       uint64
	initVotingPeriod      uint64
	initProposalThreshold uint64
	initLocal             bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the governor of the configured wallet",
	Long: `Initialize the governor derived from the configured wallet.

The transaction is submitted once. When its outcome cannot be observed the
command fails with UNKNOWN_OUTCOME; check 'agora status' before retrying.

The governor program is read from program.id (AGORA_PROGRAM_ID). With
--local the program runs on an in-process ledger and the wallet is funded
there, so nothing is sent to a cluster; program.id is optional then.

Example:
  agora init --voting-delay 100 --voting-period 1000 --proposal-threshold 10
  agora init --local --manager <pubkey>`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initManager, "manager", "", "governor manager (defaults to the wallet)")
	initCmd.Flags().Uint64Var(&initVotingDelay, "voting-delay", 0, "slots between proposal creation and voting")
	initCmd.Flags().Uint64Var(&initVotingPeriod, "voting-period", 0, "slots a vote stays open")
	initCmd.Flags().Uint64Var(&initProposalThreshold, "proposal-threshold", 0, "votes required to create a proposal")
	initCmd.Flags().BoolVar(&initLocal, "local", false, "run against an in-process ledger")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	w, err := loadWallet()
	if err != nil {
		return err
	}
	if initLocal && cfg.Program.ID == "" {
		cfg.Program.ID = config.LocalProgramID
	}
	icfg, err := cfg.Initializer()
	if err != nil {
		return err
	}

	params := initializer.Params{
		Manager:           w.PublicKey(),
		VotingDelay:       initVotingDelay,
		VotingPeriod:      initVotingPeriod,
		ProposalThreshold: initProposalThreshold,
	}
	if initManager != "" {
		if params.Manager, err = solana.PublicKeyFromBase58(initManager); err != nil {
			return fmt.Errorf("invalid manager: %w", err)
		}
	}

	m := newMetrics(ctx)
	defer func() {
		m.Flush(context.Background())
		m.Shutdown(context.Background())
	}()

	opts := []initializer.Option{
		initializer.WithLogger(logger),
		initializer.WithMetrics(m),
	}
	recorder, closeAudit, err := openRecorder(ctx)
	if err != nil {
		return err
	}
	defer closeAudit()
	if recorder != nil {
		opts = append(opts, initializer.WithRecorder(recorder))
	}

	if initLocal {
		return initLocally(ctx, cmd.OutOrStdout(), w, icfg, params, m, opts)
	}

	client := newClient()
	defer client.Close()

	a, err := initializer.New(icfg, client, w, opts...)
	if err != nil {
		return err
	}
	return submit(ctx, cmd.OutOrStdout(), a, params)
}

// newMetrics fans reports out to every configured backend. Values are
// logged when the command ends.
func newMetrics(ctx context.Context) *metrics.Collection {
	m := metrics.NewCollection(metrics.NewLogMetrics(logger))
	if err := m.Initialize(ctx); err != nil {
		logger.Warn("failed to initialize metrics", "error", err)
	}
	return m
}

// initLocally deploys the governor program on an in-process ledger, funds the
// wallet and submits while the ledger produces slots.
func initLocally(ctx context.Context, out io.Writer, w initializer.Signer, icfg initializer.Config, params initializer.Params, m metrics.Metrics, opts []initializer.Option) error {
	l := ledger.New(ledger.DefaultConfig(),
		ledger.WithLogger(logger),
		ledger.WithMetrics(m),
		ledger.WithProgram(program.New(icfg.ProgramID).WithLogger(logger)),
	)
	l.Airdrop(w.PublicKey(), solana.LAMPORTS_PER_SOL)

	a, err := initializer.New(icfg, l, w, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return submit(gctx, out, a, params)
	})
	return g.Wait()
}

func submit(ctx context.Context, out io.Writer, a *initializer.Adapter, params initializer.Params) error {
	address, err := a.Address()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Governor:  %s\n", address)

	sig, err := a.SubmitInitialize(ctx, params)
	if !sig.IsZero() {
		fmt.Fprintf(out, "Signature: %s\n", sig)
	}
	if err != nil {
		switch {
		case agoraerrors.RequiresRequery(err):
			fmt.Fprintf(out, "Outcome unknown. Run 'agora status %s' before retrying.\n", address)
		case errors.Is(err, agoraerrors.ErrAlreadyInitialized):
			fmt.Fprintln(out, "Governor is already initialized.")
		}
		return err
	}

	g, err := a.Fetch(ctx, address)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Governor initialized.")
	printGovernor(out, g)
	return nil
}

func printGovernor(out io.Writer, g *governor.Governor) {
	fmt.Fprintf(out, "  Admin:              %s\n", g.Admin)
	fmt.Fprintf(out, "  Manager:            %s\n", g.Manager)
	fmt.Fprintf(out, "  Voting delay:       %d\n", g.VotingDelay)
	fmt.Fprintf(out, "  Voting period:      %d\n", g.VotingPeriod)
	fmt.Fprintf(out, "  Proposal threshold: %d\n", g.ProposalThreshold)
	fmt.Fprintf(out, "  Proposal count:     %d\n", g.ProposalCount)
	fmt.Fprintf(out, "  Bump:               %d\n", g.Bump)
}
