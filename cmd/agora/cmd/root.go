package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-agora/internal/common"
	"github.com/lugondev/go-agora/internal/config"
	agorasolana "github.com/lugondev/go-agora/internal/solana"
)

var (
	cfgFile string

	cfg    *config.Config
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agora",
	Short: "Agora CLI - initialize and inspect Agora governors",
	Long: `Agora initializes the governor of a Solana wallet and reports the outcome.

It provides commands for:
- Governor initialization (against a cluster or an in-process ledger)
- Governor status and execution logs
- Wallet management
- The submission audit log`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./.agora.yaml or $HOME/.agora.yaml)")
	flags.String("rpc", "", "Solana RPC endpoint (overrides --network)")
	flags.String("network", "", "Solana network (mainnet, devnet, testnet, localnet)")
	flags.String("keypair", "", "keypair file in Solana CLI format")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")
}

// setup loads the configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	override("rpc", &loaded.Solana.RPC)
	override("network", &loaded.Solana.Network)
	override("keypair", &loaded.Solana.Keypair)
	override("log-level", &loaded.Log.Level)
	override("log-format", &loaded.Log.Format)

	l, err := common.NewLogger(cmd.ErrOrStderr(), loaded.Log.Level, loaded.Log.Format)
	if err != nil {
		return err
	}

	cfg = loaded
	logger = l
	slog.SetDefault(l)
	return nil
}

func newClient() *agorasolana.Client {
	return agorasolana.NewClient(cfg.Solana.GetRPCEndpoint(),
		agorasolana.WithCommitment(rpc.CommitmentType(cfg.Solana.Commitment)),
		agorasolana.WithClientLogger(logger),
	)
}

// loadWallet returns the configured signer. AGORA_SOLANA_KEYPAIR_BASE58 takes
// precedence over the keypair file.
func loadWallet() (*agorasolana.Wallet, error) {
	if cfg.Solana.KeypairBase58 != "" {
		return agorasolana.WalletFromBase58(cfg.Solana.KeypairBase58)
	}

	path, err := cfg.Solana.KeypairPath()
	if err != nil {
		return nil, err
	}
	w, err := agorasolana.WalletFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair (create one with 'agora wallet new --out %s'): %w", path, err)
	}
	return w, nil
}

// requestContext bounds a single RPC round trip.
func requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(cfg.Solana.Timeout)*time.Second)
}
