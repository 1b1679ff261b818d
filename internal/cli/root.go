// Package cli implements the cobra-based command line interface for
// offshoot.
//
// offshoot is a single-operation tool, so the root command carries the
// operation itself instead of dispatching to subcommands. This file
// defines the command, its global flags, and the Run entry point that
// translates errors into process exit codes.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/offshoot/internal/model"
)

// Global flag variables, bound to cobra persistent flags on the root
// command.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When true, the result and any error use structured JSON envelopes
	// for machine consumption. When false (default), output uses
	// human-readable text format.
	jsonOutput bool

	// verbose enables debug-level logging on stderr.
	verbose bool
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		// Use is the one-line usage pattern shown in help output.
		Use:   "offshoot <branch-name>",
		Short: "Provision an isolated Git worktree for a branch",
		Long: `offshoot provisions an isolated Git worktree for a branch in one step.

It creates the branch together with a worktree in a sibling directory
named <repo>-worktrees, then copies the local configuration a plain
checkout leaves behind (.env files, the .claude directory, and anything
a repo-local .offshoot manifest adds), so the new tree is immediately
runnable.

Examples:
  offshoot feature-auth
  offshoot feature/drums
  offshoot --json feature-auth`,

		// Args validates that exactly one positional argument (branch name)
		// is provided.
		Args: cobra.ExactArgs(1),

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		// RunE is used instead of Run so we can return errors. Run
		// translates them into exit codes.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, args[0])
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	return rootCmd
}

// Run executes the CLI with the given arguments and streams, and returns
// the process exit code. Keeping os.Exit out of this function makes the
// full binary drivable from tests.
//
// Errors returned by the command are translated here: CLIError types
// carry their own exit codes; any other error maps to the general code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args[1:])
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		// Check if the error is a CLIError with a specific exit code.
		// errors.As would also work here, but a type assertion is simpler
		// for this single-level check.
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(stderr, cliErr.Message, cliErr.Err)
			return int(cliErr.Code)
		}

		// Generic error (including cobra usage errors) — general code.
		printError(stderr, err.Error(), nil)
		return int(model.ExitGeneralError)
	}

	return int(model.ExitSuccess)
}
