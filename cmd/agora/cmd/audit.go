package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lugondev/go-agora/internal/storage"
	_ "github.com/lugondev/go-agora/internal/storage/mongo"
	_ "github.com/lugondev/go-agora/internal/storage/postgres"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the submission audit log",
	Long: `Inspect the outcomes recorded by 'agora init'.

Recording is enabled with audit.enabled and stored in the backend named by
audit.type (memory, postgres or mongo).`,
}

var auditListCmd = &cobra.Command{
	Use:   "list [governor]",
	Short: "List submissions for a governor (default: the wallet's governor)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := governorArg(args)
		if err != nil {
			return err
		}
		return withAudit(cmd.Context(), func(ctx context.Context, repo storage.Repository) error {
			list, err := repo.Submissions().FindByGovernor(ctx, address.String(), auditLimit)
			if err != nil {
				return err
			}
			printSubmissions(cmd.OutOrStdout(), list)
			return nil
		})
	},
}

var auditShowCmd = &cobra.Command{
	Use:   "show <signature>",
	Short: "Show the submission recorded for a signature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAudit(cmd.Context(), func(ctx context.Context, repo storage.Repository) error {
			s, err := repo.Submissions().FindBySignature(ctx, args[0])
			if err != nil {
				return err
			}
			if s == nil {
				return fmt.Errorf("no submission recorded for %s", args[0])
			}
			printSubmissions(cmd.OutOrStdout(), []*storage.SubmissionModel{s})
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd, auditShowCmd)

	auditListCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "maximum number of submissions")
}

// openRecorder returns the audit recorder, or nil when auditing is disabled.
// The returned close function is always safe to call.
func openRecorder(ctx context.Context) (*storage.Recorder, func(), error) {
	if !cfg.Audit.Enabled {
		return nil, func() {}, nil
	}

	cm, err := storage.NewConnectionManager(&cfg.Audit)
	if err != nil {
		return nil, nil, err
	}
	repo, err := cm.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := cm.Close(); err != nil {
			logger.Warn("failed to close audit store", "error", err)
		}
	}
	return storage.NewRecorder(repo.Submissions()), closeFn, nil
}

func withAudit(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	if !cfg.Audit.Enabled {
		return fmt.Errorf("audit is disabled (set audit.enabled in the configuration)")
	}
	if cfg.Audit.Type == storage.TypeMemory {
		logger.Warn("the memory audit store does not outlive the process")
	}

	cm, err := storage.NewConnectionManager(&cfg.Audit)
	if err != nil {
		return err
	}
	defer cm.Close()

	ctx, cancel := requestContext(ctx)
	defer cancel()

	repo, err := cm.Connect(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, repo)
}

func printSubmissions(out io.Writer, list []*storage.SubmissionModel) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No submissions recorded.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tSTATUS\tCODE\tSLOT\tSIGNATURE")
	for _, s := range list {
		code := s.ErrorCode
		if code == "" {
			code = "-"
		}
		sig := s.Signature
		if sig == "" {
			sig = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.CreatedAt.Format(time.RFC3339), s.Status, code, s.Slot, sig)
	}
	tw.Flush()
}
