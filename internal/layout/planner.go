package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmr-tortoise/offshoot/internal/model"
)

// BranchInspector answers whether a branch is already checked out in some
// worktree of the repository. worktree.Manager satisfies this interface;
// tests substitute a fake to exercise conflict paths without git.
type BranchInspector interface {
	// BranchCheckedOutAt returns the worktree path that has the branch
	// checked out, or the empty string if no worktree does.
	BranchCheckedOutAt(repoPath, branch string) (string, error)
}

// Planner computes the on-disk location for a new worktree and detects
// conflicts before any git command runs.
//
// The planner owns exactly one piece of filesystem mutation: creating the
// shared worktrees root directory. Everything deeper (intermediate
// directories for nested branch names, the worktree itself) is created by
// git during the add.
type Planner struct {
	// inspector is used to detect branches already checked out in other
	// worktrees. Injected via constructor to allow test doubles.
	inspector BranchInspector
}

// NewPlanner creates a new Planner with the given BranchInspector.
// The inspector must not be nil — it is required for the conflict pre-check.
func NewPlanner(inspector BranchInspector) *Planner {
	return &Planner{
		inspector: inspector,
	}
}

// Plan derives the worktree layout for the given repository and branch
// name, creates the shared worktrees root if missing, and runs the
// advisory conflict pre-check.
//
// The branch name is assumed to have passed validation already; the
// planner applies no syntactic rules of its own.
//
// A detected conflict is not an error: the plan is returned with
// AlreadyExists set and ConflictReason naming the collision, leaving the
// caller free to decide how to report it. Errors are reserved for
// filesystem and git failures during planning itself.
func (p *Planner) Plan(ctx model.RepositoryContext, branchName string) (model.WorktreePlan, error) {
	worktreesRoot := filepath.Join(filepath.Dir(ctx.RootPath), ctx.RepoName+"-worktrees")

	// Branch names use forward slashes regardless of platform; convert so
	// nested names land in nested directories on Windows too.
	targetPath := filepath.Join(worktreesRoot, filepath.FromSlash(branchName))

	plan := model.WorktreePlan{
		WorktreesRootDir: worktreesRoot,
		TargetPath:       targetPath,
	}

	// Create the shared root idempotently — a pre-existing directory is
	// the normal case from the second provision onward, never an error.
	if err := os.MkdirAll(worktreesRoot, 0o755); err != nil {
		return model.WorktreePlan{}, fmt.Errorf("failed to create worktrees directory %q: %w", worktreesRoot, err)
	}

	// Pre-check 1: anything already at the target path is a conflict,
	// whether it is a previous worktree or an unrelated file.
	if _, err := os.Stat(targetPath); err == nil {
		plan.AlreadyExists = true
		plan.ConflictReason = fmt.Sprintf("worktree already exists at %s", targetPath)
		return plan, nil
	} else if !os.IsNotExist(err) {
		return model.WorktreePlan{}, fmt.Errorf("failed to inspect target path %q: %w", targetPath, err)
	}

	// Pre-check 2: a branch checked out in another worktree would make
	// git refuse the add; surface the existing location instead.
	checkedOutAt, err := p.inspector.BranchCheckedOutAt(ctx.RootPath, branchName)
	if err != nil {
		return model.WorktreePlan{}, err
	}
	if checkedOutAt != "" {
		plan.AlreadyExists = true
		plan.ConflictReason = fmt.Sprintf("branch %q is already checked out at %s", branchName, checkedOutAt)
		return plan, nil
	}

	return plan, nil
}
