package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/chartqc/internal/catalog"
	"github.com/roach88/chartqc/internal/engine"
	"github.com/roach88/chartqc/internal/store"
)

// TimelineOptions holds flags for the timeline command.
type TimelineOptions struct {
	*RootOptions
	Database string
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TimelineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "timeline <doc-id>",
		Short: "Rebuild a document's event timeline",
		Long: `Reconstruct the canonical chronological event stream for a document
from its stored sections and entities, and replace the stored timeline
atomically.

Example:
  chartqc timeline --db ./chartqc.db case-2025-0137`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTimeline(opts *TimelineOptions, docID string, cmd *cobra.Command) error {
	s, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer s.Close()

	runner := engine.NewRunner(engine.Config{
		Store:   s,
		Catalog: catalog.New(s),
		Logger:  newLogger(opts.RootOptions),
	})

	res, err := runner.BuildTimeline(cmd.Context(), docID)
	if err != nil {
		return WrapExitError(ExitFailure, "build timeline", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return out.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "doc %s: %d events (%d dated)\n", res.DocID, res.Events, res.WithInstant)
	})
}
