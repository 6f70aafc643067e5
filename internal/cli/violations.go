package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/chartqc/internal/store"
)

// ViolationsOptions holds flags for the violations command.
type ViolationsOptions struct {
	*RootOptions
	Database string
}

// NewViolationsCommand creates the violations command.
func NewViolationsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViolationsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "violations <doc-id>",
		Short: "List stored violations for a document",
		Long: `List the violations from the document's most recent rule run, most
severe first.

Example:
  chartqc violations --db ./chartqc.db case-2025-0137 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViolations(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runViolations(opts *ViolationsOptions, docID string, cmd *cobra.Command) error {
	s, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer s.Close()

	violations, err := s.ListViolations(cmd.Context(), docID)
	if err != nil {
		return WrapExitError(ExitFailure, "list violations", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return out.Success(violations, func(w io.Writer) {
		if len(violations) == 0 {
			fmt.Fprintf(w, "doc %s: no violations\n", docID)
			return
		}
		for _, v := range violations {
			fmt.Fprintf(w, "[%s] %s: %s\n", v.Severity, v.RuleID, v.Message)
		}
	})
}
