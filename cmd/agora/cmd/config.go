package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lugondev/go-agora/internal/config"
)

var (
	configPath  string
	configForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration as YAML.

Every key can be overridden from the environment, e.g.
  AGORA_SOLANA_NETWORK=localnet
  AGORA_PROGRAM_CONFIRMATION_TIMEOUT=90s`,
	// The file being written may not exist yet.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DefaultConfig().WriteFile(configPath, configForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().StringVarP(&configPath, "path", "p", ".agora.yaml", "file to write")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
}
