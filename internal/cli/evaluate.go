package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/chartqc/internal/catalog"
	"github.com/roach88/chartqc/internal/engine"
	"github.com/roach88/chartqc/internal/store"
)

// EvaluateOptions holds flags for the evaluate command.
type EvaluateOptions struct {
	*RootOptions
	Database       string
	Package        string
	PackageVersion string
	Profiles       []string
	SkipTimeline   bool
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "evaluate <doc-id>",
		Short: "Run compliance rules against a document",
		Long: `Evaluate every applicable rule against a document's timeline and
replace its stored violations.

The timeline is rebuilt first so the run always sees current sections and
entities; pass --skip-timeline to evaluate the stored timeline as is.

Examples:
  chartqc evaluate --db ./chartqc.db case-2025-0137
  chartqc evaluate --db ./chartqc.db case-2025-0137 --package ru-core --package-version 2025.1
  chartqc evaluate --db ./chartqc.db case-2025-0137 --profiles ER,STA`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Package, "package", "", "rule package name (default: active package)")
	cmd.Flags().StringVar(&opts.PackageVersion, "package-version", "", "rule package version (default: latest import)")
	cmd.Flags().StringSliceVar(&opts.Profiles, "profiles", nil, "override inferred profiles, e.g. ER,STA")
	cmd.Flags().BoolVar(&opts.SkipTimeline, "skip-timeline", false, "evaluate the stored timeline without rebuilding")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runEvaluate(opts *EvaluateOptions, docID string, cmd *cobra.Command) error {
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
	ctx := cmd.Context()

	if !opts.SkipTimeline {
		if _, err := runner.BuildTimeline(ctx, docID); err != nil {
			return WrapExitError(ExitFailure, "build timeline", err)
		}
	}

	res, err := runner.EvaluateDocument(ctx, docID, engine.Options{
		PackageName:     opts.Package,
		PackageVersion:  opts.PackageVersion,
		ProfileOverride: opts.Profiles,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "evaluate document", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return out.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "doc %s run %s\n", res.DocID, res.RunToken)
		fmt.Fprintf(w, "profiles:   %s\n", strings.Join(res.Profiles, ", "))
		fmt.Fprintf(w, "rules:      %d evaluated, %d skipped\n", res.RulesEvaluated, res.RulesSkipped)
		fmt.Fprintf(w, "violations: %d\n", res.ViolationsCount)
	})
}
