// Package cli — provision.go runs the provisioning operation behind the
// root command.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/offshoot/internal/model"
	"github.com/mmr-tortoise/offshoot/internal/provision"
)

// runProvision wires the command surface to the provisioning pipeline:
// it resolves the working directory, runs the pipeline with a logger
// bound to the command's stderr, and renders the result on stdout.
// Errors bubble up to Run, which owns the exit-code translation.
func runProvision(cmd *cobra.Command, branchName string) error {
	logger := newLogger(cmd.ErrOrStderr())
	// Sync flushes buffered log entries; its error is irrelevant on exit.
	defer func() { _ = logger.Sync() }()

	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	p := provision.NewProvisioner(cwd, logger)
	result, err := p.Provision(model.ProvisionRequest{BranchName: branchName})
	if err != nil {
		return err
	}

	printProvisionResult(cmd.OutOrStdout(), result)
	return nil
}
