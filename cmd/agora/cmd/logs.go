package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-agora/pkg/log"
)

var logsRaw bool

var logsCmd = &cobra.Command{
	Use:   "logs <signature>",
	Short: "Print the program invocations of a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := solana.SignatureFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid signature: %w", err)
		}

		client := newClient()
		defer client.Close()

		ctx, cancel := requestContext(cmd.Context())
		defer cancel()

		lines, err := client.TransactionLogs(ctx, sig)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if logsRaw {
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		}

		roots, err := log.NewParser().Build(lines)
		if err != nil {
			return fmt.Errorf("failed to parse logs: %w", err)
		}
		for _, inv := range roots {
			printInvocation(out, inv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().BoolVar(&logsRaw, "raw", false, "print the log lines unparsed")
}

func printInvocation(out io.Writer, inv *log.Invocation) {
	indent := strings.Repeat("  ", len(inv.Path)-1)

	result := "success"
	switch {
	case !inv.Completed:
		result = "incomplete"
	case !inv.Succeeded:
		result = "failed: " + inv.Reason
	}

	fmt.Fprintf(out, "%s[%s] %s", indent, inv.Path, inv.ProgramID)
	if name := inv.Instruction(); name != "" {
		fmt.Fprintf(out, " %s", name)
	}
	fmt.Fprintf(out, " (%s)\n", result)

	for _, msg := range inv.Messages {
		fmt.Fprintf(out, "%s  > %s\n", indent, msg)
	}
	for _, inner := range inv.Inner {
		printInvocation(out, inner)
	}
}
