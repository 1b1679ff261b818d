package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBranchPolicy_String verifies that BranchPolicy values produce
// the expected string representations for logging and error messages.
func TestBranchPolicy_String(t *testing.T) {
	tests := []struct {
		policy   BranchPolicy
		expected string
	}{
		{BranchPolicyCreateOnly, "create-only"},
		{BranchPolicyAdoptExisting, "adopt-existing"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.policy.String())
		})
	}
}

// TestBranchPolicy_IsValid checks that only defined policies pass validation.
func TestBranchPolicy_IsValid(t *testing.T) {
	assert.True(t, BranchPolicyCreateOnly.IsValid())
	assert.True(t, BranchPolicyAdoptExisting.IsValid())
	assert.False(t, BranchPolicy("invalid").IsValid())
	assert.False(t, BranchPolicy("").IsValid())
}

// TestParseBranchPolicy verifies string-to-policy conversion,
// including case normalization and error cases.
func TestParseBranchPolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected BranchPolicy
		hasError bool
	}{
		{"create-only", BranchPolicyCreateOnly, false},
		{"adopt-existing", BranchPolicyAdoptExisting, false},
		{"Create-Only", BranchPolicyCreateOnly, false}, // case insensitive
		{"invalid", "", true},                          // unknown value
		{"", "", true},                                 // empty string
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseBranchPolicy(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestRuleKind_String verifies string representation of all rule kinds.
func TestRuleKind_String(t *testing.T) {
	assert.Equal(t, "file", RuleKindFile.String())
	assert.Equal(t, "directory", RuleKindDirectory.String())
}

// TestRuleKind_IsValid checks that only defined kinds pass validation.
func TestRuleKind_IsValid(t *testing.T) {
	assert.True(t, RuleKindFile.IsValid())
	assert.True(t, RuleKindDirectory.IsValid())
	assert.False(t, RuleKind("symlink").IsValid())
	assert.False(t, RuleKind("").IsValid())
}

// TestParseRuleKind verifies string-to-kind conversion. The empty string
// defaults to the file kind so manifest entries can omit it.
func TestParseRuleKind(t *testing.T) {
	tests := []struct {
		input    string
		expected RuleKind
		hasError bool
	}{
		{"file", RuleKindFile, false},
		{"directory", RuleKindDirectory, false},
		{"Directory", RuleKindDirectory, false}, // case insensitive
		{"", RuleKindFile, false},               // empty defaults to file
		{"dir", "", true},                       // unknown value
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseRuleKind(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestValidateBranchName checks branch name validation rules:
// - Must not be empty (or whitespace only)
// - Must not start with '-'
// - No whitespace or control characters
// - No consecutive slashes, no trailing slash
// - No '..', no path component starting with '.'
func TestValidateBranchName(t *testing.T) {
	tests := []struct {
		name     string
		hasError bool
	}{
		{"feature-auth", false},        // valid: simple name
		{"feature/drums", false},       // valid: one slash
		{"team/feature/drums", false},  // valid: nested slashes
		{"release-1.2", false},         // valid: dots allowed
		{"fix_underscores", false},     // valid: underscores allowed
		{"", true},                     // invalid: empty
		{"   ", true},                  // invalid: whitespace only
		{"-bad", true},                 // invalid: leading dash
		{"feature drums", true},        // invalid: embedded space
		{"feature\tdrums", true},       // invalid: tab
		{"feature\ndrums", true},       // invalid: newline
		{"feature\x07drums", true},     // invalid: control character
		{"feature//drums", true},       // invalid: consecutive slashes
		{"feature/drums/", true},       // invalid: trailing slash
		{"a/../b", true},               // invalid: upward path segment
		{"a..b", true},                 // invalid: consecutive dots
		{".hidden", true},              // invalid: leading dot
		{"a/.b", true},                 // invalid: dot-leading component
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBranchName(tt.name)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestValidateBranchName_ReportsRule verifies that each failure names the
// rule that was violated, so CLI error output tells the user what to fix.
func TestValidateBranchName_ReportsRule(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
	}{
		{"", "must not be empty"},
		{"-bad", "must not start with '-'"},
		{"a b", "whitespace"},
		{"a\x01b", "control characters"},
		{"a//b", "consecutive slashes"},
		{"a/b/", "must not end with '/'"},
		{"a/../b", "must not contain '..'"},
		{".hidden/x", "must not start with '.'"},
	}

	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			err := ValidateBranchName(tt.name)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.fragment)
		})
	}
}

// TestReplicationWarning verifies the warning value carries the failed
// item and cause in both structured and string form.
func TestReplicationWarning(t *testing.T) {
	warning := NewReplicationWarning(".claude", errors.New("permission denied"))
	assert.Equal(t, ".claude", warning.Item)
	assert.Equal(t, "permission denied", warning.Message)
	assert.Equal(t, ".claude: permission denied", warning.String())
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitNotARepository, "not inside a Git repository")
		assert.Equal(t, ExitNotARepository, err.Code)
		assert.Equal(t, "not inside a Git repository", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("exit status 128")
		err := WrapCLIError(ExitGitError, "git worktree add failed", inner)
		assert.Equal(t, ExitGitError, err.Code)
		assert.Contains(t, err.Error(), "exit status 128")
		assert.Equal(t, inner, err.Unwrap())
	})

	// Verify errors.Is works with unwrapped errors (Go 1.13+ error chain).
	t.Run("errors.Is chain", func(t *testing.T) {
		inner := errors.New("exit status 128")
		err := WrapCLIError(ExitGitError, "git worktree add failed", inner)
		assert.True(t, errors.Is(err, inner))
	})
}
