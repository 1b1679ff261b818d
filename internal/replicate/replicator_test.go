package replicate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/offshoot/internal/model"
)

// writeFiles creates the given files under root, creating parent
// directories as needed. Keys are slash-separated relative paths.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for path, content := range files {
		fullPath := filepath.Join(root, filepath.FromSlash(path))
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		require.NoError(t, err)
		err = os.WriteFile(fullPath, []byte(content), 0644)
		require.NoError(t, err)
	}
}

// TestReplicateDefaults verifies the fixed default rules end to end:
// .env* files and the .claude directory are copied, everything else in
// the repository is left alone.
func TestReplicateDefaults(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	writeFiles(t, srcDir, map[string]string{
		".env":                     "DATABASE_URL=postgres://localhost/dev",
		".env.local":               "SECRET=abc123",
		".claude/settings.json":    `{"model": "default"}`,
		".claude/agents/helper.md": "# Helper\n",
		"README.md":                "# App\n",
		"src/main.go":              "package main\n",
	})

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, DefaultManifest())

	assert.Empty(t, warnings, "clean copy should produce no warnings")

	// Pattern matches come back sorted, then the directory walk follows
	// in lexical order — the full list is deterministic.
	assert.Equal(t, []string{
		".env",
		".env.local",
		".claude/agents/helper.md",
		".claude/settings.json",
	}, copied)

	// Copied files carry the source content.
	for _, rel := range copied {
		want, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(rel)))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(dstDir, filepath.FromSlash(rel)))
		require.NoError(t, err, "file %s should exist in destination", rel)
		assert.Equal(t, string(want), string(got), "content of %s should match the source", rel)
	}

	// Repository content outside the rules is not replicated.
	_, err := os.Stat(filepath.Join(dstDir, "README.md"))
	assert.True(t, os.IsNotExist(err), "README.md should not be copied")
	_, err = os.Stat(filepath.Join(dstDir, "src"))
	assert.True(t, os.IsNotExist(err), "src/ should not be copied")
}

// TestReplicateMissingSources verifies that absent sources are skipped
// silently: no error, no warning, nothing copied.
func TestReplicateMissingSources(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, DefaultManifest())

	assert.Empty(t, warnings)
	assert.Empty(t, copied)
	assert.NotNil(t, copied, "copied list should be empty, not nil")
}

// TestReplicateDirectoryReplaced verifies that an existing destination
// directory is replaced wholesale rather than merged, so stale files
// from a tracked version of the directory do not survive.
func TestReplicateDirectoryReplaced(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	writeFiles(t, srcDir, map[string]string{
		".claude/settings.json": `{"fresh": true}`,
	})
	writeFiles(t, dstDir, map[string]string{
		".claude/stale.txt": "left over from checkout",
	})

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, DefaultManifest())

	assert.Empty(t, warnings)
	assert.Equal(t, []string{".claude/settings.json"}, copied)

	_, err := os.Stat(filepath.Join(dstDir, ".claude", "stale.txt"))
	assert.True(t, os.IsNotExist(err), "stale file should be removed by the replace")

	got, err := os.ReadFile(filepath.Join(dstDir, ".claude", "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"fresh": true}`, string(got))
}

// TestReplicateSkipsSymlinks verifies that symbolic links inside a copied
// directory are skipped without producing a warning.
func TestReplicateSkipsSymlinks(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	writeFiles(t, srcDir, map[string]string{
		".claude/settings.json": "{}",
	})
	err := os.Symlink(
		filepath.Join(srcDir, ".claude", "settings.json"),
		filepath.Join(srcDir, ".claude", "link.json"),
	)
	require.NoError(t, err)

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, DefaultManifest())

	assert.Empty(t, warnings)
	assert.Equal(t, []string{".claude/settings.json"}, copied)

	_, err = os.Lstat(filepath.Join(dstDir, ".claude", "link.json"))
	assert.True(t, os.IsNotExist(err), "symlink should not be copied")
}

// TestReplicateWarnsAndContinues verifies per-item failure isolation: a
// blocked item produces a warning while the remaining items still copy,
// and nothing already copied is rolled back.
func TestReplicateWarnsAndContinues(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	writeFiles(t, srcDir, map[string]string{
		".env":                  "KEY=value",
		".claude/settings.json": "{}",
	})

	// A directory squatting on the .env destination makes that single
	// copy fail deterministically.
	require.NoError(t, os.MkdirAll(filepath.Join(dstDir, ".env"), 0755))

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, DefaultManifest())

	require.Len(t, warnings, 1, "exactly one item should fail")
	assert.Equal(t, ".env", warnings[0].Item)
	assert.NotEmpty(t, warnings[0].Message)

	// The failure does not stop the directory rule that follows.
	assert.Equal(t, []string{".claude/settings.json"}, copied)
	_, err := os.Stat(filepath.Join(dstDir, ".claude", "settings.json"))
	assert.NoError(t, err, "later items should still be copied after a warning")
}

// TestReplicateFileRuleIgnoresDirectoryMatch verifies that a directory
// whose name happens to match a file glob is skipped: file rules copy
// regular files only.
func TestReplicateFileRuleIgnoresDirectoryMatch(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	writeFiles(t, srcDir, map[string]string{
		".env":            "KEY=value",
		".env.d/part.env": "PART=1",
	})

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, DefaultManifest())

	assert.Empty(t, warnings)
	assert.Equal(t, []string{".env"}, copied)

	_, err := os.Stat(filepath.Join(dstDir, ".env.d"))
	assert.True(t, os.IsNotExist(err), "directory matching a file glob should be ignored")
}

// TestReplicateDirectoryRuleOnFile verifies that a directory rule whose
// source is actually a file degrades to a warning.
func TestReplicateDirectoryRuleOnFile(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	writeFiles(t, srcDir, map[string]string{
		".claude": "not a directory",
	})

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, DefaultManifest())

	assert.Empty(t, copied)
	require.Len(t, warnings, 1)
	assert.Equal(t, ".claude", warnings[0].Item)
	assert.Contains(t, warnings[0].Message, "expected a directory")
}

// TestReplicateCustomRules verifies manifest-style rules beyond the
// defaults: nested file patterns and explicit destinations.
func TestReplicateCustomRules(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	writeFiles(t, srcDir, map[string]string{
		"config/local.toml":  "debug = true",
		".vscode/tasks.json": "{}",
	})

	manifest := model.ReplicationManifest{
		Rules: []model.CopyRule{
			{SourcePattern: "config/local.toml", Kind: model.RuleKindFile},
			{SourcePattern: ".vscode", DestinationRel: "editor", Kind: model.RuleKindDirectory},
		},
	}

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, manifest)

	assert.Empty(t, warnings)
	assert.Equal(t, []string{"config/local.toml", "editor/tasks.json"}, copied)

	_, err := os.Stat(filepath.Join(dstDir, "config", "local.toml"))
	assert.NoError(t, err, "nested file pattern should copy with its relative path")
	_, err = os.Stat(filepath.Join(dstDir, "editor", "tasks.json"))
	assert.NoError(t, err, "directory rule should honor the explicit destination")
}

// TestReplicateFileRuleDestination verifies that an explicit destination
// on a file rule names the directory matched files are placed in.
func TestReplicateFileRuleDestination(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	writeFiles(t, srcDir, map[string]string{
		"secrets/api.key": "k-123",
	})

	manifest := model.ReplicationManifest{
		Rules: []model.CopyRule{
			{SourcePattern: "secrets/*.key", DestinationRel: "keys", Kind: model.RuleKindFile},
		},
	}

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, manifest)

	assert.Empty(t, warnings)
	assert.Equal(t, []string{"keys/api.key"}, copied)

	got, err := os.ReadFile(filepath.Join(dstDir, "keys", "api.key"))
	require.NoError(t, err)
	assert.Equal(t, "k-123", string(got))
}

// TestReplicatePreservesFileModes verifies that executable bits survive
// the copy, so hook scripts stay runnable in the new worktree.
func TestReplicatePreservesFileModes(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, ".claude"), 0755))
	script := filepath.Join(srcDir, ".claude", "hook.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/bash\necho ok"), 0755))

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, DefaultManifest())

	assert.Empty(t, warnings)
	assert.Equal(t, []string{".claude/hook.sh"}, copied)

	info, err := os.Stat(filepath.Join(dstDir, ".claude", "hook.sh"))
	require.NoError(t, err)
	// Check that owner execute bit is set (0100).
	assert.NotZero(t, info.Mode()&0100,
		"executable permission should be preserved on copied files")
}

// TestReplicateRepoPathWithGlobMetacharacters verifies that matching is
// anchored at the repository root: a checkout living under a path like
// "app[1]" must still get its default .env replication, rather than the
// bracket being read as part of the pattern.
func TestReplicateRepoPathWithGlobMetacharacters(t *testing.T) {
	base := t.TempDir()
	srcDir := filepath.Join(base, "app[1]")
	dstDir := filepath.Join(base, "app[1]-worktrees", "feature")
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	writeFiles(t, srcDir, map[string]string{
		".env":            "A=1",
		"secrets/api.key": "k-123",
	})

	manifest := DefaultManifest()
	manifest.Rules = append(manifest.Rules,
		model.CopyRule{SourcePattern: "secrets/*.key", Kind: model.RuleKindFile})

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, manifest)

	assert.Empty(t, warnings)
	assert.Equal(t, []string{".env", "secrets/api.key"}, copied)

	got, err := os.ReadFile(filepath.Join(dstDir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "A=1", string(got))
}

// TestReplicateMalformedPattern verifies that a rule with a glob pattern
// filepath.Match cannot parse degrades to a warning, even when no
// directory entry would have been tested against it.
func TestReplicateMalformedPattern(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	manifest := model.ReplicationManifest{
		Rules: []model.CopyRule{
			{SourcePattern: "[", Kind: model.RuleKindFile},
		},
	}

	r := NewReplicator()
	copied, warnings := r.Replicate(srcDir, dstDir, manifest)

	assert.Empty(t, copied)
	require.Len(t, warnings, 1)
	assert.Equal(t, "[", warnings[0].Item)
}

// TestReplicateEscapingManifestBlocked runs the full manifest-to-copy
// path against a hostile manifest: the escaping rule is dropped with a
// warning, the defaults still apply, and nothing is written outside the
// destination.
func TestReplicateEscapingManifestBlocked(t *testing.T) {
	base := t.TempDir()
	srcDir := filepath.Join(base, "app")
	dstDir := filepath.Join(base, "app-worktrees", "feature")
	require.NoError(t, os.MkdirAll(dstDir, 0755))

	writeFiles(t, srcDir, map[string]string{".env": "SECRET=1\n"})
	writeManifest(t, srcDir, ".offshoot.json", `{
  "copy": [
    {"pattern": ".env*", "kind": "file", "destination": "../../escaped"}
  ]
}`)

	manifest, warnings := ManifestForRepo(srcDir)
	require.Len(t, warnings, 1)
	assert.Equal(t, "../../escaped", warnings[0].Item)

	r := NewReplicator()
	copied, copyWarnings := r.Replicate(srcDir, dstDir, manifest)

	assert.Empty(t, copyWarnings)
	assert.Equal(t, []string{".env"}, copied, "the default copy should still run")

	// The dropped rule must not have placed anything outside dstDir.
	_, err := os.Stat(filepath.Join(base, "escaped"))
	assert.True(t, os.IsNotExist(err), "no files may appear outside the destination")
}
