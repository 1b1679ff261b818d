// Package model defines the domain types for the offshoot CLI.
//
// All entities in this package represent the data flowing through a single
// provisioning run: the request, the discovered repository context, the
// planned worktree layout, the replication manifest, and the final result.
//
// Key design decision: nothing here is persisted. Every value is derived
// fresh per invocation and discarded when the process exits, so there are
// no cache-staleness or state-file concerns.
package model

import (
	"fmt"
	"strings"
	"unicode"
)

// BranchPolicy controls how the worktree executor treats a branch that
// already exists in the repository but is not checked out anywhere.
//
//	create-only    → an existing branch is a conflict; provisioning fails
//	adopt-existing → the existing branch is checked out into the new worktree
type BranchPolicy string

const (
	// BranchPolicyCreateOnly requires the branch to be newly created.
	// Provisioning a name that already exists as a branch fails with a
	// worktree conflict. This is the default and the behavior the CLI uses.
	BranchPolicyCreateOnly BranchPolicy = "create-only"

	// BranchPolicyAdoptExisting checks out an already-existing branch into
	// the new worktree instead of failing. Branches that do not exist yet
	// are still created from the current HEAD.
	BranchPolicyAdoptExisting BranchPolicy = "adopt-existing"
)

// String returns the string representation of BranchPolicy.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in logging and error messages.
func (p BranchPolicy) String() string {
	return string(p)
}

// IsValid checks whether the BranchPolicy value is one of the
// predefined valid policies.
func (p BranchPolicy) IsValid() bool {
	switch p {
	case BranchPolicyCreateOnly, BranchPolicyAdoptExisting:
		return true
	default:
		return false
	}
}

// ParseBranchPolicy converts a string to a BranchPolicy.
// Returns an error if the string does not match any valid policy.
func ParseBranchPolicy(s string) (BranchPolicy, error) {
	policy := BranchPolicy(strings.ToLower(s))
	if !policy.IsValid() {
		return "", fmt.Errorf("invalid branch policy: %q (valid: create-only, adopt-existing)", s)
	}
	return policy, nil
}

// RuleKind represents the type of a replication copy rule.
// File rules glob for regular files at the repository root; directory
// rules copy an entire tree recursively.
type RuleKind string

const (
	// RuleKindFile copies regular files matching a glob pattern.
	RuleKindFile RuleKind = "file"

	// RuleKindDirectory copies a directory tree recursively,
	// preserving relative structure and file modes.
	RuleKindDirectory RuleKind = "directory"
)

// String returns the string representation of RuleKind.
func (k RuleKind) String() string {
	return string(k)
}

// IsValid checks whether the RuleKind value is one of the
// predefined valid kinds.
func (k RuleKind) IsValid() bool {
	switch k {
	case RuleKindFile, RuleKindDirectory:
		return true
	default:
		return false
	}
}

// ParseRuleKind converts a string to a RuleKind. The empty string
// defaults to RuleKindFile so manifest authors can omit the field
// for the common case.
func ParseRuleKind(s string) (RuleKind, error) {
	if s == "" {
		return RuleKindFile, nil
	}
	kind := RuleKind(strings.ToLower(s))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid rule kind: %q (valid: file, directory)", s)
	}
	return kind, nil
}

// ProvisionRequest is the user-supplied input to a provisioning run.
// The repository context is deliberately absent: it is discovered from
// the invoking directory, never passed in.
type ProvisionRequest struct {
	// BranchName is the branch to create and check out in the new
	// worktree. Slashes are allowed and produce nested directories.
	BranchName string `json:"branchName"`
}

// RepositoryContext describes the repository a provisioning run operates
// on. It is derived once per invocation and owned by that invocation.
type RepositoryContext struct {
	// RootPath is the absolute, symlink-resolved path to the top level
	// of the repository working tree.
	RootPath string `json:"rootPath"`

	// RepoName is the base name of RootPath. It determines the name of
	// the sibling worktrees directory.
	RepoName string `json:"repoName"`
}

// WorktreePlan is the planner's output: where the new worktree will live
// and whether something already occupies that spot.
type WorktreePlan struct {
	// WorktreesRootDir is the shared container directory for all
	// worktrees of the repository: <parent-of-root>/<repoName>-worktrees.
	// It sits next to the repository, never inside it.
	WorktreesRootDir string `json:"worktreesRootDir"`

	// TargetPath is the path the new worktree will be created at:
	// WorktreesRootDir joined with the branch name.
	TargetPath string `json:"targetPath"`

	// AlreadyExists reports a conflict detected before execution: the
	// target path is occupied, or the branch is checked out in another
	// worktree. The pre-check is advisory; git remains the authority.
	AlreadyExists bool `json:"alreadyExists"`

	// ConflictReason is the human-readable reason when AlreadyExists is
	// true, empty otherwise.
	ConflictReason string `json:"conflictReason,omitempty"`
}

// CopyRule is a single replication instruction: copy whatever matches
// SourcePattern into the new worktree.
type CopyRule struct {
	// SourcePattern is a glob (file rules) or directory name (directory
	// rules), relative to the repository root.
	SourcePattern string `json:"pattern" yaml:"pattern"`

	// DestinationRel is the destination relative to the worktree root:
	// for directory rules the path of the copied tree, for file rules
	// the directory matched files are placed in. Empty means "same
	// relative path as the source match".
	DestinationRel string `json:"destination,omitempty" yaml:"destination,omitempty"`

	// Kind selects file-glob or recursive-directory copy semantics.
	// An empty kind is treated as RuleKindFile.
	Kind RuleKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// ReplicationManifest is the ordered list of copy rules applied after a
// worktree is created. The fixed defaults always come first; rules loaded
// from a repo-local manifest file are appended after them.
type ReplicationManifest struct {
	Rules []CopyRule `json:"copy" yaml:"copy"`
}

// ReplicationWarning records a non-fatal replication failure. Warnings
// never change the outcome of a provisioning run: the worktree stays,
// completed copies stay, and the process still exits successfully.
type ReplicationWarning struct {
	// Item is the source item (relative path or pattern) that failed.
	Item string `json:"item"`

	// Message describes what went wrong.
	Message string `json:"message"`
}

// NewReplicationWarning builds a warning from a failed item and its cause.
func NewReplicationWarning(item string, err error) ReplicationWarning {
	return ReplicationWarning{Item: item, Message: err.Error()}
}

// String returns a human-readable representation of the warning.
// Format: "item: message"
func (w ReplicationWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Item, w.Message)
}

// ProvisionResult summarizes a successful provisioning run.
type ProvisionResult struct {
	// RepoName is the name of the source repository.
	RepoName string `json:"repoName"`

	// BranchName is the branch checked out in the new worktree.
	BranchName string `json:"branchName"`

	// WorktreePath is the absolute path of the created worktree.
	WorktreePath string `json:"worktreePath"`

	// CopiedItems lists every file the replicator copied, as
	// slash-separated paths relative to the worktree root.
	// Never contains version-controlled files.
	CopiedItems []string `json:"copiedItems"`

	// Warnings holds non-fatal replication failures, if any.
	Warnings []ReplicationWarning `json:"warnings,omitempty"`
}

// ValidateBranchName checks if the given name is acceptable as a branch
// name for provisioning. The checks are purely syntactic: the repository
// is never consulted, and no side effects occur. Each violated rule is
// reported with its own message.
//
// Deeper reference-format rules are left to git itself; a name that
// passes here can still be rejected by the worktree executor.
func ValidateBranchName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("branch name must not be empty")
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("invalid branch name %q: must not start with '-'", name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) {
			return fmt.Errorf("invalid branch name %q: must not contain whitespace", name)
		}
		if unicode.IsControl(r) {
			return fmt.Errorf("invalid branch name %q: must not contain control characters", name)
		}
	}
	if strings.Contains(name, "//") {
		return fmt.Errorf("invalid branch name %q: must not contain consecutive slashes", name)
	}
	if strings.HasSuffix(name, "/") {
		return fmt.Errorf("invalid branch name %q: must not end with '/'", name)
	}
	// Git rejects these outright, and catching them here keeps the
	// branch-derived worktree path from ever containing an upward or
	// hidden component.
	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid branch name %q: must not contain '..'", name)
	}
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return fmt.Errorf("invalid branch name %q: path components must not start with '.'", name)
		}
	}
	return nil
}

// ExitCode defines the CLI exit codes. Each failure kind maps to a fixed
// code so scripts and CI systems can programmatically determine the
// outcome of a run.
type ExitCode int

const (
	// ExitSuccess indicates the worktree was provisioned. Replication
	// warnings do not change this.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInvalidName indicates the branch name failed syntactic
	// validation. Nothing was touched on disk.
	ExitInvalidName ExitCode = 2

	// ExitNotARepository indicates the command ran outside any Git
	// repository. Nothing was touched on disk.
	ExitNotARepository ExitCode = 3

	// ExitWorktreeConflict indicates the branch or target path is
	// already provisioned. Recoverable: pick another name or remove
	// the existing worktree.
	ExitWorktreeConflict ExitCode = 4

	// ExitGitError indicates a Git operation failed for any reason
	// other than a known conflict (missing binary, corrupt repository,
	// unexpected subprocess failure).
	ExitGitError ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
