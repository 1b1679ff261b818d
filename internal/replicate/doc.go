// Package replicate copies untracked local configuration into freshly
// provisioned worktrees for the offshoot CLI.
//
// A new worktree starts with tracked files only, so local environment
// files (.env*) and the .claude configuration directory would be missing
// until recreated by hand. The replicator copies them from the source
// repository right after the worktree is created. Repositories can extend
// the fixed set with a .offshoot.{json,jsonc,yaml,yml} manifest at their
// root.
//
// Replication is strictly best-effort: missing sources are skipped
// silently, individual copy failures degrade to warnings, and a created
// worktree is never rolled back because a copy failed.
package replicate
