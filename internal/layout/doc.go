// Package layout plans where a new worktree lives on disk for the
// offshoot CLI.
//
// The layout rule is fixed and predictable:
//
//	<parent-of-repo>/<repoName>-worktrees/<branchName>
//
// The worktrees directory always sits next to the repository, never
// inside it, so new checkouts can never pollute the source working tree.
// Branch names containing slashes map to nested directories under the
// worktrees root.
//
// The Planner also performs an advisory conflict pre-check (target path
// occupied, branch checked out elsewhere) so the CLI can fail fast with
// a precise reason. The pre-check is best-effort only: git's own locking
// during worktree creation remains the single authority on conflicts.
package layout
