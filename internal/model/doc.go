// Package model defines the domain types and value objects for the
// offshoot CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (ProvisionRequest, RepositoryContext, WorktreePlan,
// ReplicationManifest, ProvisionResult) live for exactly one provisioning
// run — there are no persistent state files and no process-wide caches.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling,
// plus the purely syntactic branch-name validation applied before any
// repository or filesystem access.
package model
