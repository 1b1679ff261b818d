package replicate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/offshoot/internal/model"
)

// DefaultManifest returns the fixed set of copy rules applied to every
// provisioned worktree: local environment files and the .claude
// configuration directory. Both are conventionally untracked, which keeps
// replication away from version-controlled content.
func DefaultManifest() model.ReplicationManifest {
	return model.ReplicationManifest{
		Rules: []model.CopyRule{
			{SourcePattern: ".env*", Kind: model.RuleKindFile},
			{SourcePattern: ".claude", Kind: model.RuleKindDirectory},
		},
	}
}

// manifestCandidates are the repository-root file names probed for a
// replication manifest, in priority order. The first one found wins;
// the others are ignored.
var manifestCandidates = []string{
	".offshoot.json",
	".offshoot.jsonc",
	".offshoot.yaml",
	".offshoot.yml",
}

// ManifestForRepo returns the replication manifest for a repository:
// the fixed defaults, extended by rules from a repo-local manifest file
// when one exists.
//
// A broken manifest never blocks provisioning. Unreadable or unparseable
// files, and individual rules with an invalid kind, an empty pattern, or
// a path that leaves its root, degrade to replication warnings while the
// defaults (and any valid rules) still apply.
func ManifestForRepo(repoRoot string) (model.ReplicationManifest, []model.ReplicationWarning) {
	manifest := DefaultManifest()

	manifestPath, found := findManifest(repoRoot)
	if !found {
		return manifest, nil
	}

	extra, err := loadManifestFile(manifestPath)
	if err != nil {
		return manifest, []model.ReplicationWarning{
			model.NewReplicationWarning(filepath.Base(manifestPath), err),
		}
	}

	var warnings []model.ReplicationWarning
	for _, rule := range extra.Rules {
		// Normalize the kind here so the replicator never sees an
		// unknown value. An omitted kind means a file rule.
		kind, err := model.ParseRuleKind(string(rule.Kind))
		if err != nil {
			warnings = append(warnings, model.NewReplicationWarning(rule.SourcePattern, err))
			continue
		}
		rule.Kind = kind

		if rule.SourcePattern == "" {
			warnings = append(warnings, model.NewReplicationWarning(filepath.Base(manifestPath),
				fmt.Errorf("manifest rule has an empty pattern")))
			continue
		}

		// Manifest paths are repo-controlled. A pattern or destination
		// that resolves upward would read or write outside the roots the
		// replicator joins them to, so escaping rules are dropped.
		if escapesRoot(rule.SourcePattern) {
			warnings = append(warnings, model.NewReplicationWarning(rule.SourcePattern,
				fmt.Errorf("manifest rule pattern must not leave the repository root")))
			continue
		}
		if rule.DestinationRel != "" && escapesRoot(rule.DestinationRel) {
			warnings = append(warnings, model.NewReplicationWarning(rule.DestinationRel,
				fmt.Errorf("manifest rule destination must not leave the worktree")))
			continue
		}

		manifest.Rules = append(manifest.Rules, rule)
	}

	return manifest, warnings
}

// escapesRoot reports whether a manifest-supplied path would resolve
// outside the directory it is joined to: absolute paths, and relative
// paths whose cleaned form still climbs upward with "..". Manifest
// paths are slash-separated, so a leading slash counts as absolute on
// every platform.
func escapesRoot(p string) bool {
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return true
	}
	cleaned := filepath.Clean(filepath.FromSlash(p))
	return cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator))
}

// findManifest probes the candidate manifest paths in priority order.
//
// os.Stat checks if the file exists without reading its contents.
// This is more efficient than os.ReadFile when we only need existence.
func findManifest(repoRoot string) (string, bool) {
	for _, name := range manifestCandidates {
		path := filepath.Join(repoRoot, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// loadManifestFile reads and parses a single manifest file based on its
// extension. JSON manifests are comment-stripped with tidwall/jsonc
// before parsing, so both .json and .jsonc files may carry comments and
// trailing commas. YAML manifests are parsed directly.
func loadManifestFile(path string) (model.ReplicationManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ReplicationManifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest model.ReplicationManifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return model.ReplicationManifest{}, fmt.Errorf("failed to parse manifest %s: %w", filepath.Base(path), err)
		}
	default:
		cleanJSON := jsonc.ToJSON(data)
		if err := json.Unmarshal(cleanJSON, &manifest); err != nil {
			return model.ReplicationManifest{}, fmt.Errorf("failed to parse manifest %s: %w", filepath.Base(path), err)
		}
	}

	return manifest, nil
}
