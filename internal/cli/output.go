// Package cli — output.go renders results and errors in text or JSON
// format, selected by the --json global flag.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mmr-tortoise/offshoot/internal/model"
)

// printProvisionResult outputs the provisioning result in the
// appropriate format (JSON or text) based on the --json global flag.
func printProvisionResult(w io.Writer, result *model.ProvisionResult) {
	if jsonOutput {
		printProvisionResultJSON(w, result)
	} else {
		printProvisionResultText(w, result)
	}
}

// printProvisionResultJSON outputs the result as structured JSON. The
// model struct carries the envelope's field names in its tags, so it is
// marshaled directly.
func printProvisionResultJSON(w io.Writer, result *model.ProvisionResult) {
	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(w, string(data))
}

// printProvisionResultText outputs the result as human-readable text,
// ending with instructions for working with the new worktree.
func printProvisionResultText(w io.Writer, result *model.ProvisionResult) {
	fmt.Fprintf(w, "Created worktree for branch %q\n", result.BranchName)
	fmt.Fprintf(w, "  Repository:  %s\n", result.RepoName)
	fmt.Fprintf(w, "  Path:        %s\n", result.WorktreePath)

	if len(result.CopiedItems) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Copied files:")
		for _, item := range result.CopiedItems {
			fmt.Fprintf(w, "    %s\n", item)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "To start working:")
	fmt.Fprintf(w, "  cd %s\n", result.WorktreePath)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Or open it in your editor:")
	fmt.Fprintf(w, "  code %s\n", result.WorktreePath)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "To remove this worktree later:")
	fmt.Fprintf(w, "  git worktree remove %s\n", result.BranchName)
}

// printError outputs an error message to w (the command's stderr) in the
// appropriate format (JSON or text) based on the --json global flag.
// Errors always go to stderr, even in JSON mode, because stdout is
// reserved for successful command output.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	// Text format: "Error: <message>" on stderr.
	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}
