// Package main is the entry point for the offshoot CLI.
//
// This binary provisions isolated Git worktrees with their local
// configuration replicated. It delegates all functionality to the
// internal/cli package, which defines the cobra command.
//
// Build-time variables (version, commit, date) are injected via ldflags
// by GoReleaser during the release process. During development, they
// default to "dev", "none", and "unknown" respectively.
package main

import (
	"io"
	"os"

	"github.com/mmr-tortoise/offshoot/internal/cli"
)

// version, commit, and date are set by GoReleaser at build time
// via ldflags (see .goreleaser.yml). They provide binary identification
// for the --version flag output.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// run executes the CLI against explicit streams and returns the exit
// code. main stays a one-liner around it so tests can drive the whole
// binary in-process.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// Inject build-time version info into the CLI package.
	// This decouples the build system (GoReleaser ldflags) from the
	// CLI framework (cobra), keeping main.go minimal.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	return cli.Run(args, stdin, stdout, stderr)
}

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
