// Package provision — provisioner.go implements the provisioning pipeline.
//
// Orchestration steps:
//  1. Validate the branch name (syntax only, no filesystem access)
//  2. Locate the repository containing the working directory
//  3. Plan the worktree layout and pre-check for conflicts
//  4. Create the worktree (git is the authority on conflicts)
//  5. Replicate untracked configuration (warnings only, never fatal)
package provision

import (
	"go.uber.org/zap"

	"github.com/mmr-tortoise/offshoot/internal/layout"
	"github.com/mmr-tortoise/offshoot/internal/model"
	"github.com/mmr-tortoise/offshoot/internal/replicate"
	"github.com/mmr-tortoise/offshoot/internal/worktree"
)

// Provisioner coordinates a single provisioning run. It owns the
// collaborators for each pipeline step and threads the data between
// them; the steps themselves live in their own packages.
type Provisioner struct {
	dir        string // working directory the repository is located from
	git        *worktree.Manager
	planner    *layout.Planner
	replicator *replicate.Replicator
	policy     model.BranchPolicy
	logger     *zap.Logger
}

// NewProvisioner creates a Provisioner that locates the repository from
// dir. A nil logger disables progress logging.
func NewProvisioner(dir string, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	git := worktree.NewManager()
	return &Provisioner{
		dir:        dir,
		git:        git,
		planner:    layout.NewPlanner(git),
		replicator: replicate.NewReplicator(),
		policy:     model.BranchPolicyCreateOnly,
		logger:     logger,
	}
}

// SetBranchPolicy overrides the default create-only branch policy.
func (p *Provisioner) SetBranchPolicy(policy model.BranchPolicy) {
	p.policy = policy
}

// Provision runs the full pipeline for the requested branch and returns
// the outcome. The first failing step aborts the run with a
// *model.CLIError carrying the step's exit code; replication failures
// do not abort and are reported in the result's Warnings instead.
func (p *Provisioner) Provision(req model.ProvisionRequest) (*model.ProvisionResult, error) {
	// Step 1: Validate the branch name before touching anything.
	if err := model.ValidateBranchName(req.BranchName); err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidName, "invalid branch name", err)
	}
	p.logger.Debug("branch name validated", zap.String("branch", req.BranchName))

	// Step 2: Locate the repository containing the working directory.
	repo, err := p.git.Locate(p.dir)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("repository located",
		zap.String("root", repo.RootPath),
		zap.String("repo", repo.RepoName))

	// Step 3: Plan the worktree layout. The plan's conflict check is
	// advisory — it exists to fail early with a precise message, not to
	// guard against races.
	plan, err := p.planner.Plan(repo, req.BranchName)
	if err != nil {
		return nil, err
	}
	if plan.AlreadyExists {
		return nil, model.NewCLIError(model.ExitWorktreeConflict, plan.ConflictReason)
	}
	p.logger.Debug("worktree planned", zap.String("target", plan.TargetPath))

	// Step 4: Create the worktree. Git remains the authority on
	// conflicts: anything that slipped past the pre-check fails here.
	if err := p.git.Add(repo.RootPath, req.BranchName, plan.TargetPath, p.policy); err != nil {
		return nil, err
	}
	p.logger.Debug("worktree created",
		zap.String("branch", req.BranchName),
		zap.String("path", plan.TargetPath))

	// Step 5: Replicate untracked configuration into the new worktree.
	// The worktree is already usable at this point, so every failure
	// from here on degrades to a warning.
	manifest, warnings := replicate.ManifestForRepo(repo.RootPath)
	copied, copyWarnings := p.replicator.Replicate(repo.RootPath, plan.TargetPath, manifest)
	warnings = append(warnings, copyWarnings...)

	for _, w := range warnings {
		p.logger.Warn("replication warning",
			zap.String("item", w.Item),
			zap.String("reason", w.Message))
	}
	p.logger.Debug("replication finished", zap.Int("copied", len(copied)))

	return &model.ProvisionResult{
		RepoName:     repo.RepoName,
		BranchName:   req.BranchName,
		WorktreePath: plan.TargetPath,
		CopiedItems:  copied,
		Warnings:     warnings,
	}, nil
}
