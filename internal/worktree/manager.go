// Package worktree provides Git worktree creation and inspection.
//
// This package wraps Git CLI commands (via os/exec) to locate the
// enclosing repository, create worktrees bound to branches, and inspect
// existing worktree state. It is the only place in the codebase that
// talks to git.
//
// Design decisions:
//   - We shell out to `git` rather than using a Go Git library (e.g., go-git)
//     because worktree operations require full Git CLI compatibility, and
//     go-git's worktree support is limited.
//   - The Manager struct is currently stateless but exists as a receiver to
//     allow future extension (e.g., custom git binary path, logging).
//   - Errors from Git commands are wrapped in model.CLIError: known
//     collision messages become ExitWorktreeConflict, everything else is
//     ExitGitError, and running outside a repository is ExitNotARepository.
package worktree

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/offshoot/internal/model"
)

// WorktreeInfo holds metadata about a single Git worktree entry
// as parsed from `git worktree list --porcelain` output.
//
// Example porcelain output for a single worktree block:
//
//	worktree /path/to/feature-branch
//	HEAD abc123def456
//	branch refs/heads/feature-branch
type WorktreeInfo struct {
	// Path is the absolute filesystem path to the worktree directory.
	Path string

	// Branch is the full branch reference (e.g., "refs/heads/main").
	// Empty if the worktree is in a detached HEAD state.
	Branch string

	// HEAD is the commit SHA that the worktree currently points to.
	HEAD string

	// IsBare indicates whether this worktree entry represents a bare repository.
	// Bare repositories appear in `git worktree list` output with a "bare" marker.
	IsBare bool
}

// Manager provides Git worktree operations by invoking the git CLI.
//
// It is currently stateless — all methods receive the repository path
// as a parameter. The struct exists as a receiver to support future
// extensions such as configurable git binary path or logging middleware.
type Manager struct{}

// NewManager creates a new worktree Manager instance.
//
// Currently there is no initialization logic, but this constructor
// follows Go convention and allows us to add setup code later
// (e.g., verifying git is installed, setting a custom git path)
// without breaking callers.
func NewManager() *Manager {
	return &Manager{}
}

// Locate discovers the Git repository containing the given path and
// derives its identity.
//
// This uses `git rev-parse --show-toplevel`, which works correctly from
// any subdirectory of a working tree (including a worktree — it returns
// the root of whichever working tree contains the path). The returned
// root is made absolute and symlink-resolved so that later path
// comparisons and sibling-directory computation are stable.
//
// Failure classification:
//   - git ran and exited non-zero: the path is outside any repository,
//     reported as ExitNotARepository.
//   - git could not be started at all (missing binary): the original
//     ExitGitError from runGit is passed through.
func (m *Manager) Locate(path string) (model.RepositoryContext, error) {
	root, err := m.GetRepoRoot(path)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// git ran and said no: the path is outside any working tree.
			return model.RepositoryContext{}, model.WrapCLIError(model.ExitNotARepository,
				fmt.Sprintf("not inside a Git repository: %s", path), err)
		}
		return model.RepositoryContext{}, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return model.RepositoryContext{}, fmt.Errorf("failed to resolve repository root %q: %w", root, err)
	}

	// Resolve symlinks so the worktrees directory lands next to the real
	// repository location (macOS /tmp is a symlink to /private/tmp).
	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return model.RepositoryContext{}, fmt.Errorf("failed to resolve repository root %q: %w", absRoot, err)
	}

	return model.RepositoryContext{
		RootPath: resolvedRoot,
		RepoName: filepath.Base(resolvedRoot),
	}, nil
}

// Add creates a new Git worktree at the specified path bound to the given branch.
//
// The branch policy decides how an already-existing branch is treated:
//
//  1. BranchPolicyCreateOnly (default): always runs
//     `git worktree add -b <branch> <worktreePath>`, creating the branch
//     from the current HEAD. If the branch already exists, git fails and
//     the error is classified as a worktree conflict.
//  2. BranchPolicyAdoptExisting: if the branch exists, runs
//     `git worktree add <worktreePath> <branch>` to check the existing
//     branch out into the new worktree instead of failing.
//
// Add performs no pre-checks of its own: git's locking around worktree
// creation is the single authoritative conflict arbiter, so two racing
// invocations cannot both succeed for the same branch or path.
//
// Parameters:
//   - repoPath: absolute path to the main Git repository (used as working directory)
//   - branch: the branch name to create or adopt
//   - worktreePath: absolute path where the new worktree will be created
//   - policy: how to treat a branch that already exists
func (m *Manager) Add(repoPath, branch, worktreePath string, policy model.BranchPolicy) error {
	if policy == model.BranchPolicyAdoptExisting && m.BranchExists(repoPath, branch) {
		// Branch exists and the caller opted in to adopting it — check it
		// out into the new worktree. Using -b here would fail with
		// "already exists".
		_, err := runGit(repoPath, "worktree", "add", worktreePath, branch)
		return classifyAddError(err)
	}

	// Create a new branch starting at HEAD. Under create-only an existing
	// branch makes git fail; classifyAddError turns that into a conflict.
	_, err := runGit(repoPath, "worktree", "add", "-b", branch, worktreePath)
	return classifyAddError(err)
}

// conflictPhrases are the stderr fragments git prints when a worktree add
// collides with existing state (branch already exists, path occupied,
// branch checked out elsewhere, stale registration). Git has no
// structured error output, so stderr text is the only classification
// signal available.
var conflictPhrases = []string{
	"already exists",
	"already checked out",
	"already registered",
	"already used by worktree",
}

// classifyAddError upgrades a failed `git worktree add` to a worktree
// conflict when git's stderr names a known collision. Every other
// failure keeps its original classification (ExitGitError from runGit).
func classifyAddError(err error) error {
	if err == nil {
		return nil
	}

	cliErr, ok := err.(*model.CLIError)
	if !ok {
		return err
	}

	// A conflict requires git to have actually run and refused. Startup
	// failures (missing binary) stay git errors.
	var exitErr *exec.ExitError
	if !errors.As(cliErr.Err, &exitErr) {
		return err
	}

	for _, phrase := range conflictPhrases {
		if strings.Contains(cliErr.Message, phrase) {
			return model.WrapCLIError(model.ExitWorktreeConflict, cliErr.Message, cliErr.Err)
		}
	}
	return err
}

// List returns information about all worktrees associated with the given repository.
//
// It runs `git worktree list --porcelain` which produces machine-parseable output.
// Each worktree block is separated by a blank line. Within a block, each line
// is a space-separated key-value pair:
//
//	worktree /path/to/dir
//	HEAD abc123
//	branch refs/heads/main
//
// Special markers like "bare" or "detached" appear as standalone keywords.
func (m *Manager) List(repoPath string) ([]WorktreeInfo, error) {
	output, err := runGit(repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	return parsePorcelainOutput(output), nil
}

// BranchCheckedOutAt returns the path of the worktree that has the given
// branch checked out, or the empty string if no worktree does.
//
// The main working directory counts as a worktree here: provisioning a
// branch that is checked out anywhere would fail inside git anyway, so
// callers use this to detect the collision before running the add.
func (m *Manager) BranchCheckedOutAt(repoPath, branch string) (string, error) {
	worktrees, err := m.List(repoPath)
	if err != nil {
		return "", err
	}

	// Porcelain output reports full refs; compare against the branch's
	// full name so "main" does not match "refs/heads/feature/main".
	ref := "refs/heads/" + branch
	for _, wt := range worktrees {
		if wt.Branch == ref {
			return wt.Path, nil
		}
	}
	return "", nil
}

// GetRepoRoot returns the absolute path to the top-level directory of the
// Git repository containing the given path.
//
// This uses `git rev-parse --show-toplevel` which works correctly for both
// the main repository and worktrees — it returns the root of whichever
// working tree contains the specified path.
//
// Note: For worktrees, this returns the worktree root, NOT the main repo root.
// Use `git rev-parse --git-common-dir` if you need the main repo's .git directory.
func (m *Manager) GetRepoRoot(path string) (string, error) {
	output, err := runGit(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	// Trim whitespace/newline from git output.
	return strings.TrimSpace(output), nil
}

// GetCurrentBranch returns the name of the currently checked-out branch
// at the given path.
//
// Uses `git rev-parse --abbrev-ref HEAD` which returns the short branch name
// (e.g., "main" instead of "refs/heads/main"). Returns "HEAD" if the
// repository is in a detached HEAD state.
func (m *Manager) GetCurrentBranch(path string) (string, error) {
	output, err := runGit(path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// BranchExists checks whether a branch with the given name exists in the repository.
//
// This uses `git rev-parse --verify <branch>` which exits with code 0 if the
// ref exists and non-zero otherwise. We only care about the exit code, not
// the output (which would be the commit SHA).
//
// This check is used by Add() under the adopt-existing policy to decide
// whether to create a new branch (-b) or check out an existing one.
func (m *Manager) BranchExists(repoPath, branch string) bool {
	_, err := runGit(repoPath, "rev-parse", "--verify", branch)
	return err == nil
}

// runGit executes a git command with the given arguments in the specified directory.
//
// It captures both stdout and stderr. On success (exit code 0), it returns
// the stdout output. On failure, it returns a model.CLIError with ExitGitError
// code, including the stderr output in the error message for debugging.
//
// The repoPath parameter is passed to git via the -C flag, which causes git
// to change to that directory before doing anything else. This avoids the need
// to change the process's working directory (which would be problematic in
// concurrent scenarios).
func runGit(repoPath string, args ...string) (string, error) {
	// Prepend -C <repoPath> to make git operate in the target directory.
	// This is safer than using exec.Command().Dir because -C is handled
	// by git itself and works correctly with all git subcommands.
	fullArgs := append([]string{"-C", repoPath}, args...)

	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.Command("git", fullArgs...)

	// Capture stdout and stderr separately so we can include stderr
	// in error messages while returning stdout on success.
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Wrap the git error in a CLIError with the Git-specific exit code.
		// Include both the git error message and stderr output for diagnostics.
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitGitError, message, err)
	}

	return stdout.String(), nil
}

// parsePorcelainOutput parses the output of `git worktree list --porcelain`
// into a slice of WorktreeInfo structs.
//
// The porcelain format uses blank lines to separate worktree blocks.
// Each block contains key-value pairs (space-separated) and optional
// standalone markers like "bare" or "detached".
//
// Example input:
//
//	worktree /path/to/main
//	HEAD abc123
//	branch refs/heads/main
//
//	worktree /path/to/feature
//	HEAD def456
//	branch refs/heads/feature
//	<empty line at end>
func parsePorcelainOutput(output string) []WorktreeInfo {
	var worktrees []WorktreeInfo

	// Split on double-newline to get individual worktree blocks.
	// The trailing newline may produce an empty last element, which we skip.
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	var current *WorktreeInfo
	for _, line := range lines {
		// A blank line signals the end of a worktree block.
		if line == "" {
			if current != nil {
				worktrees = append(worktrees, *current)
				current = nil
			}
			continue
		}

		// Parse key-value pairs. The key is the first word, the value is everything after.
		// Some entries (like "bare" or "detached") are standalone keywords with no value.
		key, value, _ := strings.Cut(line, " ")

		switch key {
		case "worktree":
			// Start a new worktree block.
			current = &WorktreeInfo{Path: value}
		case "HEAD":
			if current != nil {
				current.HEAD = value
			}
		case "branch":
			if current != nil {
				current.Branch = value
			}
		case "bare":
			if current != nil {
				current.IsBare = true
			}
			// "detached" is another possible marker — we don't need to track it
			// explicitly because a detached HEAD simply has an empty Branch field.
		}
	}

	// Handle the last block if the output doesn't end with a blank line.
	if current != nil {
		worktrees = append(worktrees, *current)
	}

	return worktrees
}
