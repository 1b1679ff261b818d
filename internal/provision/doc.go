// Package provision orchestrates a full provisioning run: validate the
// branch name, locate the repository, plan the worktree layout, create
// the worktree through git, and replicate untracked configuration into
// it.
//
// The pipeline fails fast — the first failing step aborts the run and
// nothing is retried or rolled back. The one exception is replication,
// which runs after the worktree exists and only ever degrades to
// warnings: a worktree with missing config files is still usable, a
// half-deleted worktree is not.
package provision
