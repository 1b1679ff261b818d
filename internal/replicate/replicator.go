package replicate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/offshoot/internal/model"
)

// Replicator copies untracked configuration items from a source
// repository into a newly created worktree.
//
// All writes are confined to the destination directory. The replicator
// never deletes or rolls back the worktree, and never touches the source
// repository — a failed copy leaves behind at most an incomplete
// destination item, reported as a warning.
type Replicator struct{}

// NewReplicator creates a new Replicator instance.
func NewReplicator() *Replicator {
	return &Replicator{}
}

// Replicate applies the manifest rules in order against repoRoot and
// copies the matches into destination.
//
// The first return value lists every file actually copied, as
// slash-separated paths relative to the destination root, in rule order
// (and walk order within a directory rule). The second collects per-item
// failures; a failing item never aborts the remaining rules.
//
// Sources that simply do not exist are skipped without a warning —
// most repositories only have some of the default patterns.
func (r *Replicator) Replicate(repoRoot, destination string, manifest model.ReplicationManifest) ([]string, []model.ReplicationWarning) {
	// Start from an empty (non-nil) slice so a result with nothing copied
	// serializes as [] rather than null in JSON output.
	copied := make([]string, 0)
	var warnings []model.ReplicationWarning

	for _, rule := range manifest.Rules {
		var files []string
		var warns []model.ReplicationWarning

		switch rule.Kind {
		case model.RuleKindDirectory:
			files, warns = r.copyDirRule(repoRoot, destination, rule)
		default:
			// RuleKindFile, and any unset kind, use file-glob semantics.
			files, warns = r.copyFileRule(repoRoot, destination, rule)
		}

		copied = append(copied, files...)
		warnings = append(warnings, warns...)
	}

	return copied, warnings
}

// copyFileRule copies every regular file matching the rule's glob pattern
// at the repository root. Matches that are directories are ignored — file
// rules copy files only.
func (r *Replicator) copyFileRule(repoRoot, destination string, rule model.CopyRule) ([]string, []model.ReplicationWarning) {
	matches, err := matchFiles(repoRoot, rule.SourcePattern)
	if err != nil {
		// matchFiles only fails on a malformed pattern.
		return nil, []model.ReplicationWarning{model.NewReplicationWarning(rule.SourcePattern, err)}
	}

	var copied []string
	var warnings []model.ReplicationWarning

	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			warnings = append(warnings, model.NewReplicationWarning(filepath.Base(match), err))
			continue
		}
		if info.IsDir() {
			continue
		}

		relPath, err := filepath.Rel(repoRoot, match)
		if err != nil {
			warnings = append(warnings, model.NewReplicationWarning(filepath.Base(match), err))
			continue
		}

		// An explicit destination names the directory matched files land
		// in; by default each file keeps its own relative path.
		destRel := relPath
		if rule.DestinationRel != "" {
			destRel = filepath.Join(filepath.FromSlash(rule.DestinationRel), filepath.Base(match))
		}
		dstPath := filepath.Join(destination, destRel)

		if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
			warnings = append(warnings, model.NewReplicationWarning(filepath.ToSlash(destRel), err))
			continue
		}
		if err := copyFile(match, dstPath, info.Mode()); err != nil {
			warnings = append(warnings, model.NewReplicationWarning(filepath.ToSlash(destRel), err))
			continue
		}

		copied = append(copied, filepath.ToSlash(destRel))
	}

	return copied, warnings
}

// matchFiles expands a root-relative glob pattern, one path segment at a
// time, via os.ReadDir + filepath.Match. filepath.Glob on the joined
// path is not usable here: metacharacters in the repository's own path
// (a checkout under "app[1]", say) would take part in the matching and
// silently match nothing. Anchoring at root also means a pattern can
// only ever name entries below it.
//
// Matches come back in lexical order, like filepath.Glob.
func matchFiles(root, pattern string) ([]string, error) {
	// Reject malformed patterns up front, the way filepath.Glob does, so
	// a bad pattern warns even when no directory entry gets tested.
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}

	matches := []string{root}
	for _, segment := range strings.Split(pattern, "/") {
		var next []string
		for _, dir := range matches {
			entries, err := os.ReadDir(dir)
			if err != nil {
				// Not a directory, or unreadable — nothing below it.
				continue
			}
			for _, entry := range entries {
				if ok, _ := filepath.Match(segment, entry.Name()); ok {
					next = append(next, filepath.Join(dir, entry.Name()))
				}
			}
		}
		matches = next
	}
	return matches, nil
}

// copyDirRule copies the directory named by the rule recursively into the
// destination. An existing directory at the target is replaced, not
// merged, so the copy is an exact snapshot of the source.
func (r *Replicator) copyDirRule(repoRoot, destination string, rule model.CopyRule) ([]string, []model.ReplicationWarning) {
	srcDir := filepath.Join(repoRoot, filepath.FromSlash(rule.SourcePattern))

	info, err := os.Stat(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing source — not an error, not a warning.
			return nil, nil
		}
		return nil, []model.ReplicationWarning{model.NewReplicationWarning(rule.SourcePattern, err)}
	}
	if !info.IsDir() {
		return nil, []model.ReplicationWarning{model.NewReplicationWarning(rule.SourcePattern,
			fmt.Errorf("expected a directory, found a file"))}
	}

	destRel := rule.SourcePattern
	if rule.DestinationRel != "" {
		destRel = rule.DestinationRel
	}
	dstDir := filepath.Join(destination, filepath.FromSlash(destRel))

	// Replace any existing destination directory. A fresh worktree can
	// already contain a tracked version of the directory; the local copy
	// wins wholesale rather than merging with it.
	if _, err := os.Stat(dstDir); err == nil {
		if err := os.RemoveAll(dstDir); err != nil {
			return nil, []model.ReplicationWarning{model.NewReplicationWarning(filepath.ToSlash(destRel), err)}
		}
	}

	copied, err := copyDir(srcDir, dstDir, filepath.ToSlash(destRel))
	if err != nil {
		// Files copied before the failure stay in place and stay reported;
		// only the failure itself becomes a warning.
		return copied, []model.ReplicationWarning{model.NewReplicationWarning(filepath.ToSlash(destRel), err)}
	}
	return copied, nil
}

// copyDir copies the directory tree rooted at srcDir to dstDir,
// preserving relative structure and file modes. Symbolic links are
// skipped to avoid circular references and keep the copy predictable.
//
// The returned slice lists every copied file as a slash-separated path
// prefixed with destRel (the tree's path relative to the worktree root).
// On error, the files copied so far are still returned.
func copyDir(srcDir, dstDir, destRel string) ([]string, error) {
	var copied []string

	err := filepath.Walk(srcDir, func(path string, info os.FileInfo, walkErr error) error {
		// If the Walk function itself encountered an error accessing a path
		// (e.g., permission denied), propagate it immediately.
		if walkErr != nil {
			return fmt.Errorf("error walking source directory at %s: %w", path, walkErr)
		}

		// Compute the relative path from the source root, then join it
		// with the destination root to get the target path.
		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		dstPath := filepath.Join(dstDir, relPath)

		// Skip symbolic links to avoid potential circular references and
		// to keep the copy behavior predictable.
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		// Handle directories: create them in the destination.
		if info.IsDir() {
			if err := os.MkdirAll(dstPath, info.Mode()); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dstPath, err)
			}
			return nil
		}

		if err := copyFile(path, dstPath, info.Mode()); err != nil {
			return err
		}

		copied = append(copied, filepath.ToSlash(filepath.Join(destRel, relPath)))
		return nil
	})

	return copied, err
}

// copyFile copies a single file from src to dst, preserving the file mode.
//
// The function uses io.Copy for efficient streaming — the entire file is
// not loaded into memory, which matters for large local files.
func copyFile(src, dst string, mode os.FileMode) error {
	// Open the source file for reading.
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	// defer ensures the file is closed even if an error occurs below.
	defer func() { _ = srcFile.Close() }()

	// Create the destination file with the same permissions as the source.
	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}
	defer func() { _ = dstFile.Close() }()

	// Stream the file contents. io.Copy reads from src and writes to dst
	// in chunks, avoiding loading the entire file into memory.
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	return nil
}
