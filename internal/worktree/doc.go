// Package worktree provides Git worktree creation and inspection for
// the offshoot CLI.
//
// All Git operations are performed via os/exec calls to the git binary,
// rather than using a Git library like go-git. This approach:
//   - Avoids CGO dependencies (libgit2)
//   - Uses the exact same Git behavior the user sees in their terminal
//   - Lets git's own repository locking arbitrate concurrent invocations,
//     so this tool needs no cross-process locking of its own
//
// The Manager struct provides methods for locating the enclosing
// repository, creating a worktree bound to a branch, and querying
// branch and worktree state.
package worktree
