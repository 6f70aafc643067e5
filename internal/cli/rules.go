package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/chartqc/internal/rulespec"
	"github.com/roach88/chartqc/internal/store"
)

// RulesOptions holds flags shared by the rules subcommands.
type RulesOptions struct {
	*RootOptions
	Database string
	Activate bool
}

// NewRulesCommand creates the rules command group.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage rule packages",
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newRulesImportCommand(opts))
	cmd.AddCommand(newRulesListCommand(opts))
	cmd.AddCommand(newRulesActivateCommand(opts))
	return cmd
}

func newRulesImportCommand(opts *RulesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <package.json>",
		Short: "Validate and import a rule package",
		Long: `Validate a JSON rule package against the schema and import it.

Re-importing an existing name/version replaces its rule definitions.

Example:
  chartqc rules import --db ./chartqc.db ru-core.json --activate`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesImport(opts, args[0], cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Activate, "activate", false, "activate the package after import")
	return cmd
}

func runRulesImport(opts *RulesOptions, path string, cmd *cobra.Command) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read package file", err)
	}
	pkg, err := rulespec.Compile(path, data)
	if err != nil {
		return WrapExitError(ExitFailure, "validate package", err)
	}

	s, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.ImportPackage(ctx, pkg); err != nil {
		return WrapExitError(ExitFailure, "import package", err)
	}
	if opts.Activate {
		if err := s.SetActivePackage(ctx, pkg.Name, pkg.Version); err != nil {
			return WrapExitError(ExitFailure, "activate package", err)
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return out.Success(map[string]any{
		"package":   pkg.Name,
		"version":   pkg.Version,
		"rules":     len(pkg.Rules),
		"activated": opts.Activate,
	}, func(w io.Writer) {
		fmt.Fprintf(w, "imported %s@%s (%d rules)", pkg.Name, pkg.Version, len(pkg.Rules))
		if opts.Activate {
			fmt.Fprint(w, ", activated")
		}
		fmt.Fprintln(w)
	})
}

func newRulesListCommand(opts *RulesOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List imported rule packages",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "open database", err)
			}
			defer s.Close()

			pkgs, err := s.ListPackages(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "list packages", err)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return out.Success(pkgs, func(w io.Writer) {
				for _, p := range pkgs {
					marker := " "
					if p.Active {
						marker = "*"
					}
					fmt.Fprintf(w, "%s %s@%s  %s\n", marker, p.Name, p.Version, p.Title)
				}
			})
		},
	}
}

func newRulesActivateCommand(opts *RulesOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "activate <name> <version>",
		Short:         "Mark one package version active",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "open database", err)
			}
			defer s.Close()

			if err := s.SetActivePackage(cmd.Context(), args[0], args[1]); err != nil {
				return WrapExitError(ExitFailure, "activate package", err)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return out.Success(map[string]any{"package": args[0], "version": args[1]}, func(w io.Writer) {
				fmt.Fprintf(w, "activated %s@%s\n", args[0], args[1])
			})
		},
	}
}
